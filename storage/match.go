package storage

import (
	"fmt"
	"regexp"

	"github.com/RiddheshMore/ros-component-explorer/errors"
)

// CompileTerm compiles a search term as a case-insensitive regular expression.
// The term is not escaped: regex metacharacters keep their meaning.
func CompileTerm(term string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + term)
	if err != nil {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrInvalidQuery, err),
			"storage", "CompileTerm", "compile search pattern")
	}
	return re, nil
}

// Matches reports whether re matches the record name, class, description or any
// annotation. The placeholder description never matches.
func Matches(re *regexp.Regexp, r Record, annotations []string) bool {
	if re.MatchString(r.Name) || re.MatchString(r.Class) {
		return true
	}
	if r.Description != DefaultDescription && re.MatchString(r.Description) {
		return true
	}
	for _, a := range annotations {
		if re.MatchString(a) {
			return true
		}
	}
	return false
}
