package main

// Five days of advertising metrics across three products. The ad_spend
// column sums to 1234.5, which several tests assert against.
const fixtureAdSalesCSV = `date,item_id,ad_sales,impressions,ad_spend,clicks,units_sold
2024-06-01,11,520.50,14320,200.00,142,21
2024-06-02,11,640.10,15875,300.00,165,26
2024-06-03,23,410.00,9850,234.50,97,15
2024-06-04,23,388.25,10240,250.00,101,14
2024-06-05,42,505.75,12110,250.00,128,19`

const fixtureTotalSalesCSV = `date,item_id,total_sales,total_units_ordered
2024-06-01,11,980.50,39
2024-06-02,11,1110.25,44
2024-06-03,23,760.00,30
2024-06-04,23,702.40,28
2024-06-05,42,899.99,35`

// Eligibility snapshots with boolean flags and blank messages for the
// eligible rows.
const fixtureEligibilityCSV = `eligibility_datetime_utc,item_id,eligibility,message
2024-06-05 14:02:11,11,TRUE,
2024-06-05 14:02:11,23,TRUE,
2024-06-05 14:02:11,42,FALSE,Product listing is missing required attributes
2024-06-04 09:30:05,11,TRUE,
2024-06-04 09:30:05,42,FALSE,Product listing is missing required attributes`

// Ad sales header with the ad_spend column dropped.
const fixtureMissingColumnCSV = `date,item_id,ad_sales,impressions,clicks,units_sold
2024-06-01,11,520.50,14320,142,21`

// Second data row is short one field.
const fixtureRaggedCSV = `date,item_id,ad_sales,impressions,ad_spend,clicks,units_sold
2024-06-01,11,520.50,14320,200.00,142,21
2024-06-02,11,640.10,15875,300.00,165`

// The date column appears twice.
const fixtureDuplicateColumnCSV = `date,date,ad_sales,impressions,ad_spend,clicks,units_sold
2024-06-01,2024-06-01,520.50,14320,200.00,142,21`

const fixtureHeaderOnlyCSV = `date,item_id,ad_sales,impressions,ad_spend,clicks,units_sold`

// Same ad sales data preceded by a UTF-8 byte order mark.
var fixtureBOMHeaderCSV = "\ufeff" + fixtureAdSalesCSV

// fixtureCSVs returns all three datasets keyed the way IngestAll expects.
func fixtureCSVs() map[string]string {
	return map[string]string{
		DatasetAdSales:     fixtureAdSalesCSV,
		DatasetTotalSales:  fixtureTotalSalesCSV,
		DatasetEligibility: fixtureEligibilityCSV,
	}
}

// MockResult builds a QueryResult from a column list and rows given in
// column order.
func MockResult(columns []string, rows ...[]interface{}) *QueryResult {
	result := &QueryResult{Columns: columns, Rows: []map[string]interface{}{}}
	for _, values := range rows {
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		result.Rows = append(result.Rows, row)
	}
	return result
}
