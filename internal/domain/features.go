package domain

import "strings"

// Column names, exactly as used when the model was trained.
const (
	ColCustomerCity        = "customer_city"
	ColCustomerState       = "customer_state"
	ColZipCodePrefix       = "customer_zip_code_prefix"
	ColMainProductCategory = "main_product_category"
	ColTotalItems          = "total_items"
	ColTotalPrice          = "total_price"
	ColTotalFreight        = "total_freight"
	ColPaymentValue        = "payment_value"
	ColPaymentInstallments = "payment_installments"
	ColGeoLat              = "geo_lat"
	ColGeoLng              = "geo_lng"
	ColPurchaseHour        = "purchase_hour"
	ColPurchaseWeekday     = "purchase_weekday"
	ColApprovalDelayHours  = "approval_delay_hours"
	ColOrderStatus         = "order_status"
)

// DefaultOrderStatus is emitted when the schema includes order_status and the
// caller left it blank.
const DefaultOrderStatus = "delivered"

var baseColumns = []string{
	ColCustomerCity,
	ColCustomerState,
	ColZipCodePrefix,
	ColMainProductCategory,
	ColTotalItems,
	ColTotalPrice,
	ColTotalFreight,
	ColPaymentValue,
	ColPaymentInstallments,
	ColGeoLat,
	ColGeoLng,
	ColPurchaseHour,
	ColPurchaseWeekday,
	ColApprovalDelayHours,
}

// FeatureSchema fixes the column set for the life of the process.
type FeatureSchema struct {
	IncludeOrderStatus bool
}

// Columns returns the ordered column names.
func (s FeatureSchema) Columns() []string {
	cols := make([]string, len(baseColumns), len(baseColumns)+1)
	copy(cols, baseColumns)
	if s.IncludeOrderStatus {
		cols = append(cols, ColOrderStatus)
	}
	return cols
}

// OrderFields are the order attributes collected independently of location.
// Range checks (items ≥ 1, hour 0..23, weekday 0..6) belong to the input
// boundary, not here.
type OrderFields struct {
	MainProductCategory string  `json:"main_product_category"`
	TotalItems          int     `json:"total_items" validate:"gte=1"`
	TotalPrice          float64 `json:"total_price" validate:"gte=0"`
	TotalFreight        float64 `json:"total_freight" validate:"gte=0"`
	PaymentValue        float64 `json:"payment_value" validate:"gte=0"`
	PaymentInstallments int     `json:"payment_installments" validate:"gte=1"`
	PurchaseHour        int     `json:"purchase_hour" validate:"gte=0,lte=23"`
	PurchaseWeekday     int     `json:"purchase_weekday" validate:"gte=0,lte=6"`
	ApprovalDelayHours  float64 `json:"approval_delay_hours" validate:"gte=0"`
	OrderStatus         string  `json:"order_status,omitempty"`
}

// DefaultOrderFields returns the values the form starts with.
func DefaultOrderFields(c Catalog) OrderFields {
	return OrderFields{
		MainProductCategory: DefaultCategoryFor(c),
		TotalItems:          2,
		TotalPrice:          120.0,
		TotalFreight:        25.0,
		PaymentValue:        145.0,
		PaymentInstallments: 1,
		PurchaseHour:        12,
		PurchaseWeekday:     2,
		ApprovalDelayHours:  0,
	}
}

// OrderFeatures is the single row handed to the predictor. OrderStatus is
// non-nil exactly when the schema includes it, so the JSON key set is stable.
type OrderFeatures struct {
	CustomerCity        string  `json:"customer_city"`
	CustomerState       string  `json:"customer_state"`
	ZipCodePrefix       int     `json:"customer_zip_code_prefix"`
	MainProductCategory string  `json:"main_product_category"`
	TotalItems          int     `json:"total_items"`
	TotalPrice          float64 `json:"total_price"`
	TotalFreight        float64 `json:"total_freight"`
	PaymentValue        float64 `json:"payment_value"`
	PaymentInstallments int     `json:"payment_installments"`
	GeoLat              float64 `json:"geo_lat"`
	GeoLng              float64 `json:"geo_lng"`
	PurchaseHour        int     `json:"purchase_hour"`
	PurchaseWeekday     int     `json:"purchase_weekday"`
	ApprovalDelayHours  float64 `json:"approval_delay_hours"`
	OrderStatus         *string `json:"order_status,omitempty"`
}

// Schema returns the schema this record was assembled with.
func (f OrderFeatures) Schema() FeatureSchema {
	return FeatureSchema{IncludeOrderStatus: f.OrderStatus != nil}
}

// Values returns the row as column → value. Integers stay int, money and
// coordinates stay float64, categoricals stay string.
func (f OrderFeatures) Values() map[string]any {
	v := map[string]any{
		ColCustomerCity:        f.CustomerCity,
		ColCustomerState:       f.CustomerState,
		ColZipCodePrefix:       f.ZipCodePrefix,
		ColMainProductCategory: f.MainProductCategory,
		ColTotalItems:          f.TotalItems,
		ColTotalPrice:          f.TotalPrice,
		ColTotalFreight:        f.TotalFreight,
		ColPaymentValue:        f.PaymentValue,
		ColPaymentInstallments: f.PaymentInstallments,
		ColGeoLat:              f.GeoLat,
		ColGeoLng:              f.GeoLng,
		ColPurchaseHour:        f.PurchaseHour,
		ColPurchaseWeekday:     f.PurchaseWeekday,
		ColApprovalDelayHours:  f.ApprovalDelayHours,
	}
	if f.OrderStatus != nil {
		v[ColOrderStatus] = *f.OrderStatus
	}
	return v
}

// Row returns the values ordered by Schema().Columns().
func (f OrderFeatures) Row() []any {
	values := f.Values()
	cols := f.Schema().Columns()
	row := make([]any, len(cols))
	for i, c := range cols {
		row[i] = values[c]
	}
	return row
}

// Assembler merges location and order fields into OrderFeatures.
type Assembler struct {
	schema FeatureSchema
}

// NewAssembler creates an Assembler emitting the given schema.
func NewAssembler(schema FeatureSchema) *Assembler {
	return &Assembler{schema: schema}
}

// Schema returns the schema every assembled record carries.
func (a *Assembler) Schema() FeatureSchema { return a.schema }

// Assemble is a pure structural merge and cannot fail. A blank category falls
// back to DefaultCategoryFor(c); a blank order status to DefaultOrderStatus.
func (a *Assembler) Assemble(loc LocationState, c Catalog, order OrderFields) OrderFeatures {
	category := strings.TrimSpace(order.MainProductCategory)
	if category == "" {
		category = DefaultCategoryFor(c)
	}

	f := OrderFeatures{
		CustomerCity:        loc.City,
		CustomerState:       loc.State,
		ZipCodePrefix:       loc.ZipPrefix,
		MainProductCategory: category,
		TotalItems:          order.TotalItems,
		TotalPrice:          order.TotalPrice,
		TotalFreight:        order.TotalFreight,
		PaymentValue:        order.PaymentValue,
		PaymentInstallments: order.PaymentInstallments,
		GeoLat:              loc.Lat,
		GeoLng:              loc.Lng,
		PurchaseHour:        order.PurchaseHour,
		PurchaseWeekday:     order.PurchaseWeekday,
		ApprovalDelayHours:  order.ApprovalDelayHours,
	}

	if a.schema.IncludeOrderStatus {
		status := strings.TrimSpace(order.OrderStatus)
		if status == "" {
			status = DefaultOrderStatus
		}
		f.OrderStatus = &status
	}
	return f
}
