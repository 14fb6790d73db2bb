package types

import (
	"regexp"
	"strings"
)

// Settings holds the connection settings of one daemon. Adapters treat it as
// read-only for their whole lifetime.
type Settings struct {
	Name               string `json:"name"`
	Host               string `json:"host"`
	Port               int    `json:"port"`
	UseSsl             bool   `json:"use_ssl"`
	SkipTLSVerify      bool   `json:"skip_tls_verify"`
	UrlBase            string `json:"url_base"`
	Token              string `json:"token"`
	Preset             string `json:"preset"`
	SavePath           string `json:"save_path"`
	Category           string `json:"category"`
	PostImportCategory string `json:"post_import_category"`
	RateLimit          string `json:"rate_limit"`
	Proxy              string `json:"proxy"`
}

// Field names used in validation failures.
const (
	FieldHost               = "host"
	FieldPort               = "port"
	FieldUseSsl             = "use_ssl"
	FieldUrlBase            = "url_base"
	FieldToken              = "token"
	FieldCategory           = "category"
	FieldPostImportCategory = "post_import_category"
)

// ValidationFailure is a problem tied to one settings field. An empty Field
// means the failure is not attributable to a single field.
type ValidationFailure struct {
	Field               string `json:"field"`
	Message             string `json:"message"`
	DetailedDescription string `json:"detailed_description,omitempty"`
}

type ValidationResult struct {
	Failures []ValidationFailure `json:"failures"`
}

func (r ValidationResult) IsValid() bool {
	return len(r.Failures) == 0
}

func (r *ValidationResult) Add(f *ValidationFailure) {
	if f != nil {
		r.Failures = append(r.Failures, *f)
	}
}

var (
	categoryRegex = regexp.MustCompile(`^([^\\/](/?[^\\/])*)?$`)
	hostRegex     = regexp.MustCompile(`^[a-zA-Z0-9\-._\[\]:]+$`)
)

const categoryMessage = `Can not contain '\', '//', or start/end with '/'`

func (s Settings) Validate() ValidationResult {
	var res ValidationResult
	switch {
	case strings.TrimSpace(s.Host) == "":
		res.Add(&ValidationFailure{Field: FieldHost, Message: "Host is required"})
	case strings.Contains(s.Host, "://") || !hostRegex.MatchString(s.Host):
		res.Add(&ValidationFailure{Field: FieldHost, Message: "Invalid host", DetailedDescription: "Enter a hostname or IP address without scheme or path."})
	}
	if s.Port < 1 || s.Port > 65535 {
		res.Add(&ValidationFailure{Field: FieldPort, Message: "Port must be between 1 and 65535"})
	}
	if s.UrlBase != "" && (strings.Contains(s.UrlBase, "://") || strings.ContainsAny(s.UrlBase, "?#")) {
		res.Add(&ValidationFailure{Field: FieldUrlBase, Message: "Invalid url base"})
	}
	if !categoryRegex.MatchString(s.Category) {
		res.Add(&ValidationFailure{Field: FieldCategory, Message: categoryMessage})
	}
	if !categoryRegex.MatchString(s.PostImportCategory) {
		res.Add(&ValidationFailure{Field: FieldPostImportCategory, Message: categoryMessage})
	}
	return res
}
