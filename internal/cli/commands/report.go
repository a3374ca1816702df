package commands

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/sqltype/internal/cli/output"
	"github.com/leapstack-labs/sqltype/internal/service"
	"github.com/leapstack-labs/sqltype/pkg/core"
)

func renderCheck(r *output.Renderer, out *output.CheckOutput) error {
	if ok, err := r.Structured(out); ok {
		return err
	}
	if r.EffectiveMode() == output.ModeCSV {
		renderCheckCSV(r, out)
		return nil
	}

	for i, rep := range out.Statements {
		if i > 0 {
			r.Println()
		}
		renderStatement(r, rep)
	}
	r.Println()
	renderSummary(r, out.Summary)
	return nil
}

// renderStatement writes one report in text or markdown.
func renderStatement(r *output.Renderer, rep output.StatementReport) {
	if rep.Name != "" {
		r.Header(2, rep.Name)
	}
	if rep.Error != nil {
		renderError(r, rep.Error)
		return
	}

	if len(rep.Columns) == 0 && len(rep.Params) == 0 {
		r.Println(r.Muted(fmt.Sprintf("%s statement, no columns or parameters", rep.Kind)))
		return
	}
	if len(rep.Columns) > 0 {
		rows := make([][]string, len(rep.Columns))
		for i, c := range rep.Columns {
			rows[i] = []string{c.Name, c.Base.String(), nullability(c.Type)}
		}
		r.Table([]string{"column", "type", "nullable"}, rows)
	}
	if len(rep.Params) > 0 {
		rows := make([][]string, len(rep.Params))
		for i, p := range rep.Params {
			rows[i] = []string{strconv.Itoa(p.Index), p.Label, p.Base.String(), nullability(p.Type)}
		}
		r.Table([]string{"#", "param", "type", "nullable"}, rows)
	}
}

func renderError(r *output.Renderer, info *service.ErrorInfo) {
	heading := output.Title(string(info.Kind))
	msg := info.Message
	if info.Line > 0 {
		msg = fmt.Sprintf("%s (line %d, column %d)", msg, info.Line, info.Column)
	}
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatKeyValue(heading, msg))
		return
	}
	s := r.Styles()
	r.Println(s.StatusFailed.String() + " " + s.Error.Render(heading+":") + " " + msg)
}

func renderSummary(r *output.Renderer, sum output.CheckSummary) {
	if sum.Failed == 0 {
		r.Success(fmt.Sprintf("%d statements checked", sum.Statements))
		return
	}
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatKeyValue("Failed", fmt.Sprintf("%d of %d statements", sum.Failed, sum.Statements)))
		return
	}
	r.Println(r.Styles().Warning.Render(fmt.Sprintf("%d of %d statements failed", sum.Failed, sum.Statements)))
}

func renderCheckCSV(r *output.Renderer, out *output.CheckOutput) {
	var rows [][]string
	for _, rep := range out.Statements {
		if rep.Error != nil {
			rows = append(rows, []string{rep.Name, "error", string(rep.Error.Kind), "", "", rep.Error.Message})
			continue
		}
		for _, c := range rep.Columns {
			rows = append(rows, []string{rep.Name, "column", c.Name, c.Base.String(), strconv.FormatBool(c.Nullable), ""})
		}
		for _, p := range rep.Params {
			rows = append(rows, []string{rep.Name, "param", p.Label, p.Base.String(), strconv.FormatBool(p.Nullable), ""})
		}
	}
	r.Table([]string{"statement", "entry", "name", "type", "nullable", "message"}, rows)
}

func nullability(t core.Type) string {
	if t.Nullable {
		return "yes"
	}
	return "no"
}
