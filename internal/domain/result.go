package domain

// Result is the outcome of a catalog mutation. Mutations never return an
// error to the caller; failures are reported here instead.
type Result struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Succeeded builds a successful result
func Succeeded(id string) Result {
	return Result{Success: true, ID: id}
}

// Failed builds a failed result carrying err's message
func Failed(err error) Result {
	if err == nil {
		return Result{Success: false}
	}
	return Result{Success: false, Error: err.Error()}
}
