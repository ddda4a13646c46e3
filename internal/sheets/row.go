package sheets

import "fmt"

// Row is one persisted record, a fixed 6-column tuple matching columns A-F of
// the sheet. Column order and count never change; the dashboard indexes into
// them positionally.
type Row struct {
	Timestamp  string
	UserID     string
	RawMessage string
	Category   string
	Value      string
	Context    string
}

// Sentinel values written when extraction yields nothing, so every inbound
// message still produces exactly one row.
const (
	NoDataCategory = "No Data"
	NoDataValue    = "-"
	NoDataContext  = "-"
)

// NoDataRow builds the sentinel row for a message with no extractable fields.
func NoDataRow(timestamp, userID, rawMessage string) Row {
	return Row{
		Timestamp:  timestamp,
		UserID:     userID,
		RawMessage: rawMessage,
		Category:   NoDataCategory,
		Value:      NoDataValue,
		Context:    NoDataContext,
	}
}

func (r Row) values() []any {
	return []any{r.Timestamp, r.UserID, r.RawMessage, r.Category, r.Value, r.Context}
}

// rowFromValues maps a sheet row back into a Row. Short rows (trailing blank
// cells are omitted by the API) leave the remaining columns empty.
func rowFromValues(vals []any) Row {
	cell := func(i int) string {
		if i >= len(vals) || vals[i] == nil {
			return ""
		}
		return fmt.Sprint(vals[i])
	}
	return Row{
		Timestamp:  cell(0),
		UserID:     cell(1),
		RawMessage: cell(2),
		Category:   cell(3),
		Value:      cell(4),
		Context:    cell(5),
	}
}
