package repositories

import "context"

// Row is the generic row format records are converted to at the persistence
// boundary. Typed records cross component boundaries; rows only appear here.
type Row map[string]any

// RecordSink receives generated records in table-homogeneous batches with
// at-least-once semantics per call. Batches for parent records (shipment
// headers) are issued before their dependents.
type RecordSink interface {
	WriteBatch(ctx context.Context, table string, rows []Row) (int, error)
}
