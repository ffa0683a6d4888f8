package docstore

// Op is a filter operator
type Op int

const (
	// OpEqual matches documents whose field equals the value
	OpEqual Op = iota

	// OpArrayContainsAny matches documents whose array field shares at least
	// one element with the value (a []string)
	OpArrayContainsAny
)

func (o Op) String() string {
	switch o {
	case OpEqual:
		return "=="
	case OpArrayContainsAny:
		return "array-contains-any"
	default:
		return "unknown"
	}
}

// Direction is a sort direction
type Direction int

const (
	Asc Direction = iota
	Desc
)

// Filter restricts a query on one field
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Order sorts results by one field. Documents without the field are excluded.
type Order struct {
	Field     string
	Direction Direction
}

// Query selects documents from a collection. Build it with Collection and
// the chained methods; each returns a copy.
type Query struct {
	Collection string
	Filters    []Filter
	Orders     []Order
	Max        int // 0 = unlimited
}

// Collection starts a query over the named collection
func Collection(name string) Query {
	return Query{Collection: name}
}

// Where adds a filter
func (q Query) Where(field string, op Op, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: op, Value: value})
	return q
}

// OrderBy adds a sort key
func (q Query) OrderBy(field string, dir Direction) Query {
	q.Orders = append(append([]Order(nil), q.Orders...), Order{Field: field, Direction: dir})
	return q
}

// Limit caps the number of results
func (q Query) Limit(n int) Query {
	q.Max = n
	return q
}
