package domain

// Result is the outcome of backing up one source during one run.
type Result struct {
	Source       string
	Success      bool
	ArtifactPath string
	Err          error
	Mirrors      []string
}

func Succeeded(source, artifactPath string, mirrors []string) Result {
	return Result{Source: source, Success: true, ArtifactPath: artifactPath, Mirrors: mirrors}
}

func Failed(source string, err error) Result {
	return Result{Source: source, Err: err}
}

// Message is the artifact path on success and the error text on failure.
func (r Result) Message() string {
	if r.Success {
		return r.ArtifactPath
	}
	if r.Err == nil {
		return "unknown error"
	}
	return r.Err.Error()
}
