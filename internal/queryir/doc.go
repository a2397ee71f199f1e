// Package queryir defines the parsed form of a search query.
//
// A search query is a flat conjunction of conditions. There is no OR, no
// grouping and no nesting: the IR is simply an ordered list of Condition
// values, each naming a column, an operator and its operands.
//
//	[query text] → querylang → [queryir.Query] → querysql → [SQL + params]
//
// COLUMNS:
//
// Four columns are stored in the log table and compared directly:
//
//	who, where, type, message
//
// Two are virtual. They are never compared as the raw "time" column but
// through local-time extraction expressions:
//
//	time  datetime("time", 'localtime')
//	date  date("time", 'localtime')
//
// OPERANDS:
//
// Operand is a sealed interface. Literal operands (Number, String, Word)
// belong to the stored columns. Time shorthand (TimeOfDay, DateTime, Now)
// belongs to time, date shorthand (Date, Today, Yesterday) to date.
// Validate enforces these pairings and the operand count of each operator.
//
// Example:
//
//	switch o := operand.(type) {
//	case String:
//	    // bind o.Value
//	case Now:
//	    // emit fixed SQL, no parameter
//	}
package queryir
