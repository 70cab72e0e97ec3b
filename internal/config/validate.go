package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

var outputModes = []any{"plain", "pretty", "json", "ndjson", "yaml"}

// CheckConfigValidity validates the merged configuration and reports every
// problem at once.
func CheckConfigValidity(v *viper.Viper) error {
	var problems []string
	add := func(key string, err error) {
		if err != nil {
			problems = append(problems, key+" "+err.Error())
		}
	}

	add("data_dir", validation.Validate(strings.TrimSpace(v.GetString("data_dir")), validation.Required.Error("is required")))
	add("api.url", validation.Validate(v.GetString("api.url"),
		validation.Required.Error("is required"), validation.By(httpURL)))
	if origin := v.GetString("api.origin"); origin != "" {
		add("api.origin", validation.Validate(origin, validation.By(httpURL)))
	}
	add("api.timeout", validation.Validate(v.GetString("api.timeout"), validation.By(positiveDuration)))
	add("autosave.interval", validation.Validate(v.GetString("autosave.interval"), validation.By(positiveDuration)))
	add("links.concurrency", validation.Validate(v.GetInt("links.concurrency"),
		validation.Min(1).Error("must be greater than 0")))
	add("output.default", validation.Validate(v.GetString("output.default"),
		validation.In(outputModes...).Error("must be one of plain|pretty|json|ndjson|yaml")))
	add("log.format", validation.Validate(v.GetString("log.format"),
		validation.In("console", "json").Error("must be console or json")))
	add("locale", validation.Validate(v.GetString("locale"), validation.By(languageTag)))

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return errors.New("invalid config: " + strings.Join(problems, "; "))
}

func httpURL(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("has invalid url %q", s)
	}
	return nil
}

func positiveDuration(value any) error {
	s, _ := value.(string)
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return fmt.Errorf("must be a positive duration, got %q", s)
	}
	return nil
}

func languageTag(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := language.Parse(s); err != nil {
		return fmt.Errorf("is not a valid language tag %q", s)
	}
	return nil
}
