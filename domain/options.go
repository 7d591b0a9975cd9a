package domain

// WithFindProjection specifies which fields to include or exclude from query
// results.
func WithFindProjection(p []string) FindOption {
	return func(fo *FindOptions) {
		fo.Projection = p
	}
}

// WithFindSkip sets the number of documents to skip in query results.
func WithFindSkip(s int64) FindOption {
	return func(fo *FindOptions) {
		fo.Skip = s
	}
}

// WithFindLimit sets the maximum number of documents to return. Zero means no
// limit.
func WithFindLimit(l int64) FindOption {
	return func(fo *FindOptions) {
		fo.Limit = l
	}
}

// WithFindSort specifies the sort order for query results.
func WithFindSort(s Sort) FindOption {
	return func(fo *FindOptions) {
		fo.Sort = s
	}
}

// WithFindPopulate specifies references to be resolved in query results.
func WithFindPopulate(p []PopulateOption) FindOption {
	return func(fo *FindOptions) {
		fo.Populate = p
	}
}

// FindOption configures query behavior through the functional options pattern.
type FindOption func(*FindOptions)

// FindOptions contains parameters for customizing query execution.
type FindOptions struct {
	// Projection specifies which fields to include or exclude from results.
	Projection []string
	// Skip specifies the number of documents to skip.
	Skip int64
	// Limit specifies the maximum number of documents to return.
	Limit int64
	// Sort specifies the sort order for results.
	Sort Sort
	// Populate specifies references to be resolved.
	Populate []PopulateOption
}

// NewFindOptions applies opts over the zero value.
func NewFindOptions(opts ...FindOption) FindOptions {
	var fo FindOptions
	for _, opt := range opts {
		opt(&fo)
	}
	return fo
}
