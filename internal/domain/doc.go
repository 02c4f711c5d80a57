// Package domain models the order attributes that feed the delivery-time
// regression model and the location data used to fill them in.
//
// # Data Sources
//
// Two optional flat files live under <root>/data/processed:
//
//	df_model.csv    the training snapshot; only customer_city,
//	                main_product_category, geo_lat and geo_lng are read,
//	                to build choice lists and default coordinates.
//	lookup_zip.csv  customer_zip_code_prefix, customer_city, customer_state,
//	                geo_lat, geo_lng; one row per postal-code prefix.
//
// Either file may be missing. A missing snapshot yields [CatalogAbsent] and the
// city and category inputs degrade to free text; a missing lookup table yields
// a nil [*ZipTable] and every prefix resolves as not found.
//
// # Normalization
//
// Cities are trimmed and lowercased ("  São Paulo " → "são paulo"). States
// are trimmed and uppercased ("sp" → "SP"). Categories are trimmed only; the
// model was trained on the raw snake_case labels (e.g. "bed_bath_table").
//
// # Postal-Code Prefixes
//
// A prefix is the leading five digits of a Brazilian CEP, stored as an integer
// (leading zeros dropped: "01001" → 1001). When the lookup file carries the
// same prefix more than once, the first row wins; later rows are counted as
// duplicates in [ZipTableStats].
//
// # Feature Schema
//
// The model consumes one row with these columns (see [FeatureSchema]):
//
//	customer_city, customer_state, customer_zip_code_prefix,
//	main_product_category, total_items, total_price, total_freight,
//	payment_value, payment_installments, geo_lat, geo_lng,
//	purchase_hour, purchase_weekday, approval_delay_hours
//
// Some trained artifacts additionally expect order_status. Whether the column
// is emitted is fixed per process by [FeatureSchema.IncludeOrderStatus], so the
// key set never varies between requests.
package domain
