package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/ui/output"
	"go.trai.ch/kiln/internal/ui/style"
	"go.trai.ch/zerr"
)

// systemReport is the per-system outcome written by build and plan.
type systemReport struct {
	System    domain.System   `json:"system"`
	Address   string          `json:"address,omitempty"`
	StorePath string          `json:"storePath,omitempty"`
	Toolchain string          `json:"toolchain,omitempty"`
	Outputs   []domain.Output `json:"outputs,omitempty"`
	App       *domain.AppRef  `json:"app,omitempty"`
	Shell     []string        `json:"shell,omitempty"`
	// Cached is set when the derivation was already in the store.
	Cached      bool                `json:"cached"`
	Realization *domain.Realization `json:"realization,omitempty"`
	// Reused is set when the realization was recorded by an earlier build.
	Reused bool         `json:"reused,omitempty"`
	Errors []stageError `json:"errors,omitempty"`
}

type stageError struct {
	Stage   domain.Stage `json:"stage"`
	Kind    string       `json:"kind"`
	Message string       `json:"message"`
}

func newSystemReport(res *domain.SystemResult) systemReport {
	rep := systemReport{
		System: res.System,
		App:    res.App,
		Cached: res.Cached,
	}
	if tc := res.Toolchain; tc != nil {
		rep.Toolchain = fmt.Sprintf("%s %s (%s)", tc.Name, tc.Version, tc.Channel)
	}
	if drv := res.Derivation; drv != nil {
		rep.Address = drv.Address
		rep.StorePath = drv.StorePath()
		rep.Outputs = drv.Outputs
	}
	if res.Shell != nil {
		rep.Shell = make([]string, 0, len(res.Shell.Tools))
		for _, tool := range res.Shell.Tools {
			rep.Shell = append(rep.Shell, tool.Name)
		}
	}
	for _, stage := range domain.StageOrder {
		err, ok := res.Errors[stage]
		if !ok {
			continue
		}
		rep.Errors = append(rep.Errors, stageError{
			Stage:   stage,
			Kind:    domain.Kind(err),
			Message: strings.ReplaceAll(err.Error(), "\n", "; "),
		})
	}
	return rep
}

func (a *App) writeReports(reports []systemReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return zerr.Wrap(err, "failed to encode report")
		}
		return nil
	}
	return renderReports(a.stdout, reports)
}

const labelWidth = 10

// renderReports writes one block per system: a status line followed by labelled details.
func renderReports(w io.Writer, reports []systemReport) error {
	s := style.NewStyles(output.NewRenderer(w))

	var b strings.Builder
	detail := func(label, value string) {
		pad := strings.Repeat(" ", max(labelWidth-len(label), 0))
		fmt.Fprintf(&b, "    %s%s %s\n", s.Muted.Render(label), pad, value)
	}

	for _, rep := range reports {
		if len(rep.Errors) > 0 {
			fmt.Fprintf(&b, "%s %s\n", s.Failure.Render(style.Cross), rep.System)
		} else {
			status := rep.System.String()
			if rep.StorePath != "" {
				status += "  " + s.Accent.Render(rep.StorePath)
			}
			if rep.Cached {
				status += " " + s.Muted.Render("(cached)")
			}
			fmt.Fprintf(&b, "%s %s\n", s.Success.Render(style.Check), status)
		}

		if rep.Toolchain != "" {
			detail("toolchain", rep.Toolchain)
		}
		if rep.App != nil {
			detail("program", rep.App.Program)
		}
		if rep.Shell != nil {
			tools := strings.Join(rep.Shell, ", ")
			if tools == "" {
				tools = s.Muted.Render("none")
			}
			detail("shell", tools)
		}
		if r := rep.Realization; r != nil {
			root := r.Root
			if rep.Reused {
				root += " " + s.Muted.Render("(reused)")
			}
			detail("realized", root)
		}
		for _, e := range rep.Errors {
			detail(string(e.Stage), s.Failure.Render(e.Kind)+": "+e.Message)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
