package generator

import (
	"encoding/json"
	"errors"
)

// ParseReport decodes normalized text into a GenerationResponse. It never
// repairs: anything that does not decode is a *MalformedReportError.
// Key names match case-insensitively ("Sections" == "sections"), as
// encoding/json does; only structure and types are enforced here.
func ParseReport(jsonText string) (GenerationResponse, error) {
	var report GenerationResponse
	if err := json.Unmarshal([]byte(jsonText), &report); err != nil {
		return GenerationResponse{}, &MalformedReportError{Normalized: jsonText, Err: err}
	}
	// "null" 能被解码成零值，这里不接受凭空得到的空报告。
	if report.Sections == nil {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal([]byte(jsonText), &probe); err != nil || probe == nil {
			return GenerationResponse{}, &MalformedReportError{Normalized: jsonText, Err: errors.New("top-level value is not an object")}
		}
	}
	return report, nil
}
