package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/zx06/credsafe/internal/errors"
)

const SchemaVersion = 1

type ErrorObject struct {
	Code    errors.Code    `json:"code" yaml:"code"`
	Message string         `json:"message" yaml:"message"`
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
}

// Envelope 是 json/yaml 输出的稳定外层结构。
type Envelope struct {
	OK            bool         `json:"ok" yaml:"ok"`
	SchemaVersion int          `json:"schema_version" yaml:"schema_version"`
	Error         *ErrorObject `json:"error,omitempty" yaml:"error,omitempty"`
	Data          any          `json:"data,omitempty" yaml:"data,omitempty"`
}

// Tabular 由命令结果实现，table/csv 输出按行列渲染；其他数据退化为 key/value。
type Tabular interface {
	Columns() []string
	Rows() [][]string
}

type Writer struct {
	Out io.Writer
	Err io.Writer
}

func New(out, err io.Writer) Writer {
	return Writer{Out: out, Err: err}
}

func (w Writer) WriteOK(format Format, data any) error {
	return w.write(format, Envelope{OK: true, SchemaVersion: SchemaVersion, Data: data})
}

func (w Writer) WriteError(format Format, xe *errors.XError) error {
	errObj := &ErrorObject{Code: xe.Code, Message: xe.Message, Details: xe.Details}
	env := Envelope{OK: false, SchemaVersion: SchemaVersion, Error: errObj}
	// table/csv 的错误写 stderr，stdout 只保留数据
	if format == FormatTable || format == FormatCSV {
		return writeErrorText(w.Err, env)
	}
	return w.write(format, env)
}

func (w Writer) write(format Format, env Envelope) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w.Out)
		enc.SetEscapeHTML(false)
		return enc.Encode(env)
	case FormatYAML:
		b, err := yaml.Marshal(env)
		if err != nil {
			return err
		}
		if _, err := w.Out.Write(b); err != nil {
			return err
		}
		if len(b) == 0 || b[len(b)-1] != '\n' {
			_, _ = w.Out.Write([]byte("\n"))
		}
		return nil
	case FormatTable:
		return writeTable(w.Out, env.Data)
	case FormatCSV:
		return writeCSV(w.Out, env.Data)
	default:
		return errors.New(errors.CodeCfgInvalid, "invalid output format", map[string]any{"format": string(format)})
	}
}

func tabulate(data any) ([]string, [][]string) {
	switch v := data.(type) {
	case nil:
		return nil, nil
	case Tabular:
		return v.Columns(), v.Rows()
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		rows := make([][]string, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, []string{k, cell(v[k])})
		}
		return []string{"key", "value"}, rows
	default:
		return []string{"value"}, [][]string{{cell(v)}}
	}
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(x)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func writeTable(out io.Writer, data any) error {
	cols, rows := tabulate(data)
	if len(cols) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	upper := make([]string, len(cols))
	for i, c := range cols {
		upper[i] = strings.ToUpper(c)
	}
	_, _ = fmt.Fprintln(tw, strings.Join(upper, "\t"))
	for _, r := range rows {
		_, _ = fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

func writeCSV(out io.Writer, data any) error {
	cols, rows := tabulate(data)
	if len(cols) == 0 {
		return nil
	}
	cw := csv.NewWriter(out)
	_ = cw.Write(cols)
	for _, r := range rows {
		_ = cw.Write(r)
	}
	cw.Flush()
	return cw.Error()
}

func writeErrorText(out io.Writer, env Envelope) error {
	if env.Error == nil {
		return nil
	}
	_, err := fmt.Fprintf(out, "error: %s: %s\n", env.Error.Code, env.Error.Message)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(env.Error.Details))
	for k := range env.Error.Details {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(out, "  %s: %s\n", k, cell(env.Error.Details[k])); err != nil {
			return err
		}
	}
	return nil
}
