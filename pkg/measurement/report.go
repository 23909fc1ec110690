package measurement

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/meridian-nav/meridian/pkg/util"
)

// Report collects measurement results as flat key=value properties, kept in
// insertion order so related keys stay grouped in the output file.
type Report struct {
	keys   []string
	values map[string]string
}

func NewReport() *Report {
	return &Report{values: make(map[string]string)}
}

func (r *Report) Put(key string, value interface{}) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	switch v := value.(type) {
	case float64:
		r.values[key] = fmt.Sprintf("%.2f", v)
	default:
		r.values[key] = fmt.Sprint(value)
	}
}

func (r *Report) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

func (r *Report) Keys() []string {
	return append([]string(nil), r.keys...)
}

// WriteProperties writes the java properties style file the comparison
// tooling ingests.
func (r *Report) WriteProperties(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return util.WrapErrorf(err, util.ErrBadParamInput,
			"measurement: creating %s", filename)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "#measurement report\n")
	fmt.Fprintf(w, "#%s\n", time.Now().Format(time.RFC3339))
	for _, key := range r.keys {
		fmt.Fprintf(w, "%s=%s\n", key, r.values[key])
	}
	if err := w.Flush(); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError,
			"measurement: writing %s", filename)
	}
	return nil
}

func (r *Report) WriteJSON(filename string) error {
	js, err := json.MarshalIndent(r.values, "", "\t")
	if err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError,
			"measurement: encoding json report")
	}
	js = append(js, '\n')
	if err := os.WriteFile(filename, js, 0o644); err != nil {
		return util.WrapErrorf(err, util.ErrBadParamInput,
			"measurement: writing %s", filename)
	}
	return nil
}
