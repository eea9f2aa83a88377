package db

import (
	"github.com/jackc/pgx/v5"

	"github.com/gyeh/rx340b/internal/model"
)

// ChannelSource implements pgx.CopyFromSource by reading AuditRows from a channel.
// This provides natural backpressure between the producer and the COPY writer.
type ChannelSource struct {
	ch      <-chan *model.AuditRow
	current *model.AuditRow
	err     error
}

// NewChannelSource creates a CopyFromSource backed by a channel.
func NewChannelSource(ch <-chan *model.AuditRow) *ChannelSource {
	return &ChannelSource{ch: ch}
}

// Next advances to the next row. Returns false when the channel is closed.
func (s *ChannelSource) Next() bool {
	row, ok := <-s.ch
	if !ok {
		return false
	}
	s.current = row
	return true
}

// Values returns the current row's values in AuditColumns order.
func (s *ChannelSource) Values() ([]any, error) {
	return AuditValues(s.current), nil
}

// Err returns any error encountered during iteration.
func (s *ChannelSource) Err() error {
	return s.err
}

// Compile-time check that ChannelSource satisfies the interface.
var _ pgx.CopyFromSource = (*ChannelSource)(nil)

// AuditValues returns r's values in model.AuditColumns order.
func AuditValues(r *model.AuditRow) []any {
	return []any{
		r.RunID,
		r.RowNumber,
		r.NDC,
		r.DrugName,
		nilIfEmpty(r.Manufacturer),
		r.HCPCSCode,
		Numeric(r.ContractCost),
		Numeric(r.AWP),
		NullNumeric(r.ASP),
		Numeric(r.RetailGrossMargin),
		Numeric(r.RetailNetMargin),
		Numeric(r.RetailCaptureRate),
		NullNumeric(r.MedicareMargin),
		NullNumeric(r.CommercialMargin),
		r.Recommendation,
		Numeric(r.MarginDelta),
		r.Compared,
		r.IRARisk,
		r.PennyPricing,
	}
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
