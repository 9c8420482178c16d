package grpc

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"

	"toolshed-backend/internal/domain"
)

// MapDomainRentalToStruct renders a rental as a protobuf Struct. Money is a
// decimal string and dates are YYYY-MM-DD.
func MapDomainRentalToStruct(r *domain.Rental) (*structpb.Struct, error) {
	if r == nil {
		return &structpb.Struct{}, nil
	}
	fields := map[string]any{
		"id":          r.ID,
		"tool_id":     r.ToolID,
		"member_id":   r.MemberID,
		"start_date":  r.StartDate.Format(domain.DateLayout),
		"end_date":    r.EndDate.Format(domain.DateLayout),
		"status":      string(r.Status),
		"total_price": r.TotalPrice.StringFixed(2),
		"created_by":  r.CreatedBy,
		"created_on":  r.CreatedOn.Format(time.RFC3339),
	}
	if r.ActualReturnDate != nil {
		fields["actual_return_date"] = r.ActualReturnDate.Format(domain.DateLayout)
	}
	if r.ReturnComment != "" {
		fields["return_comment"] = r.ReturnComment
	}
	return structpb.NewStruct(fields)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrValidation}, args...)...)
}

func int32Field(req *structpb.Struct, name string, required bool) (int32, error) {
	v, ok := req.GetFields()[name]
	if !ok || v.GetKind() == nil {
		if required {
			return 0, invalid("%s is required", name)
		}
		return 0, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != float64(int32(n.NumberValue)) {
		return 0, invalid("%s must be an integer", name)
	}
	return int32(n.NumberValue), nil
}

func stringField(req *structpb.Struct, name string) (string, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return "", nil
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", invalid("%s must be a string", name)
	}
	return s.StringValue, nil
}

func dateField(req *structpb.Struct, name string, required bool) (*time.Time, error) {
	raw, err := stringField(req, name)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		if required {
			return nil, invalid("%s is required", name)
		}
		return nil, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return nil, invalid("%s must be YYYY-MM-DD, got %q", name, raw)
	}
	return &d, nil
}

func decimalField(req *structpb.Struct, name string) (*decimal.Decimal, error) {
	raw, err := stringField(req, name)
	if err != nil || raw == "" {
		return nil, err
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, invalid("%s is not a decimal: %q", name, raw)
	}
	return &d, nil
}
