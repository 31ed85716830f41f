package views

// DataLogColumns are the spreadsheet headers, in column order.
var DataLogColumns = []string{
	"Timestamp",
	"CO2 Energy (kWh)",
	"Frascold Energy (kWh)",
	"New IQF Energy (kWh)",
	"NH3 Unit 1",
	"NH3 Unit 2",
	"New IQF Status",
	"Old IQF Status",
}

// DataLogRows flattens points into spreadsheet rows matching DataLogColumns.
// Missing readings are left as empty cells.
func DataLogRows(points []TimeSeriesPoint) [][]interface{} {
	rows := make([][]interface{}, 0, len(points))
	for _, pt := range points {
		rows = append(rows, []interface{}{
			pt.Time,
			cell(pt.CO2Energy),
			cell(pt.FrascoldEnergy),
			cell(pt.NewIQFEnergy),
			cell(pt.NH3Unit1),
			cell(pt.NH3Unit2),
			string(pt.NewIQFRunning),
			string(pt.OldIQFRunning),
		})
	}
	return rows
}

func cell(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
