package handler

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-participation/internal/apperr"
	"github.com/Shivanand-hulikatti/event-participation/internal/model"
)

// intParam reads an integer query parameter, returning def when absent.
func intParam(q url.Values, name string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.BadRequest("%s must be an integer, got %q", name, raw)
	}
	return n, nil
}

func boolParam(q url.Values, name string) (*bool, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.BadRequest("%s must be true or false, got %q", name, raw)
	}
	return &b, nil
}

func dateParam(q url.Values, name string) (*time.Time, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	t, err := model.ParseDateTime(raw)
	if err != nil {
		return nil, apperr.BadRequest("%s: %v", name, err)
	}
	return &t, nil
}

// listParam accepts both ?ids=a&ids=b and ?ids=a,b.
func listParam(q url.Values, name string) []string {
	var out []string
	for _, v := range q[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func pageParams(q url.Values) (model.Page, error) {
	from, err := intParam(q, "from", 0)
	if err != nil {
		return model.Page{}, err
	}
	size, err := intParam(q, "size", 10)
	if err != nil {
		return model.Page{}, err
	}
	return model.Page{From: from, Size: size}, nil
}
