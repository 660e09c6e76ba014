package executor

// Error codes reported under GraphQLError.Extensions["code"].
const (
	// CodeValidation marks a document or argument that does not satisfy the
	// schema. Resolvers below the failing position are never invoked.
	CodeValidation = "VALIDATION_ERROR"
	// CodeResolution marks a resolver or collaborator failure scoped to the
	// field it occurred in.
	CodeResolution = "RESOLUTION_ERROR"
)

// GraphQLError represents an error that occurred during execution
type GraphQLError struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       Path           `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e GraphQLError) Error() string {
	return e.Message
}

// Code returns the error code extension, or "" when absent.
func (e GraphQLError) Code() string {
	code, _ := e.Extensions["code"].(string)
	return code
}

// Location is a position in the query document.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// ExecutionResult represents the result of executing a GraphQL query
type ExecutionResult struct {
	Data   any            `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// Failed reports whether execution stopped before producing any data.
func (r *ExecutionResult) Failed() bool {
	return r.Data == nil && len(r.Errors) > 0
}

func validationError(message string, path Path, locs ...Location) GraphQLError {
	return GraphQLError{Message: message, Locations: locs, Path: path, Extensions: map[string]any{"code": CodeValidation}}
}

func resolutionError(message string, path Path) GraphQLError {
	return GraphQLError{Message: message, Path: path, Extensions: map[string]any{"code": CodeResolution}}
}
