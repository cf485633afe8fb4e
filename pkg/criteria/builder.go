package criteria

// Builder constructs a Query with a fluent API.
// Every method returns a new Builder, so a partially built query can be
// shared and extended without affecting other users.
type Builder struct {
	conditions []Condition
	sort       *Sort
	skip       int64
	limit      int64
}

// New creates an empty Builder.
func New() *Builder {
	return &Builder{conditions: []Condition{}}
}

// Where adds a condition. Multiple calls are combined with AND logic.
func (b *Builder) Where(field string, op Op, value interface{}) *Builder {
	nb := b.clone()
	nb.conditions = append(nb.conditions, Condition{Field: field, Op: op, Value: value})
	return nb
}

// Eq is shorthand for Where(field, Eq, value).
func (b *Builder) Eq(field string, value interface{}) *Builder {
	return b.Where(field, Eq, value)
}

// Lt is shorthand for Where(field, Lt, value).
func (b *Builder) Lt(field string, value interface{}) *Builder {
	return b.Where(field, Lt, value)
}

// Gt is shorthand for Where(field, Gt, value).
func (b *Builder) Gt(field string, value interface{}) *Builder {
	return b.Where(field, Gt, value)
}

// Contains is shorthand for Where(field, Contains, value).
func (b *Builder) Contains(field string, value string) *Builder {
	return b.Where(field, Contains, value)
}

// OrderBy sets the sort field and direction.
func (b *Builder) OrderBy(field string, direction Direction) *Builder {
	nb := b.clone()
	nb.sort = &Sort{Field: field, Direction: direction}
	return nb
}

// Skip sets the number of documents to skip.
func (b *Builder) Skip(n int64) *Builder {
	nb := b.clone()
	nb.skip = n
	return nb
}

// Limit sets the maximum number of documents to return. Zero means no limit.
func (b *Builder) Limit(n int64) *Builder {
	nb := b.clone()
	nb.limit = n
	return nb
}

// Build returns the Query.
func (b *Builder) Build() Query {
	q := Query{
		Conditions: make([]Condition, len(b.conditions)),
		Skip:       b.skip,
		Limit:      b.limit,
	}
	copy(q.Conditions, b.conditions)
	if b.sort != nil {
		s := *b.sort
		q.Sort = &s
	}
	return q
}

func (b *Builder) clone() *Builder {
	nb := &Builder{
		conditions: make([]Condition, len(b.conditions)),
		sort:       b.sort,
		skip:       b.skip,
		limit:      b.limit,
	}
	copy(nb.conditions, b.conditions)
	return nb
}
