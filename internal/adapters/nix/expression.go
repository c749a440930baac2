package nix

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	srcfs "go.trai.ch/kiln/internal/adapters/fs" //nolint:depguard // Source filter mirrors the walker
	"go.trai.ch/kiln/internal/core/domain"
)

// defaultFlake provides packages whose index entry names no flake.
const defaultFlake = "nixpkgs"

// placeholders are the variables a step may start an argument with. The Nix builder
// defines all of them.
var placeholders = []string{"$src", "$lock", "$out"}

var bareWord = regexp.MustCompile(`^[A-Za-z0-9_./=:@%+,-]+$`)

// flakeSet assigns stable indices to flake references in sorted order.
type flakeSet struct {
	refs  []string
	index map[string]int
}

func newFlakeSet(pkgs []domain.Package) *flakeSet {
	seen := make(map[string]struct{}, len(pkgs))
	for _, p := range pkgs {
		seen[flakeOf(p)] = struct{}{}
	}
	set := &flakeSet{refs: slices.Sorted(maps.Keys(seen)), index: make(map[string]int, len(seen))}
	for i, ref := range set.refs {
		set.index[ref] = i
	}
	return set
}

func (f *flakeSet) writeBindings(b *strings.Builder) {
	for i, ref := range f.refs {
		fmt.Fprintf(b, "  flake_%d = builtins.getFlake %s;\n", i, nixString(ref))
		fmt.Fprintf(b, "  pkgs_%d = flake_%d.legacyPackages.${system};\n", i, i)
	}
}

func (f *flakeSet) attr(p domain.Package) string {
	return fmt.Sprintf("pkgs_%d.%s", f.index[flakeOf(p)], attrOf(p))
}

func flakeOf(p domain.Package) string {
	if p.Flake == "" {
		return defaultFlake
	}
	return p.Flake
}

func attrOf(p domain.Package) string {
	if p.Attr == "" {
		return p.Name
	}
	return p.Attr
}

// generateDerivationExpr renders drv as a Nix expression. Equal derivations give identical text.
func generateDerivationExpr(drv *domain.Derivation) string {
	tc := drv.Toolchain.AsPackage()
	flakes := newFlakeSet([]domain.Package{tc})

	var b strings.Builder
	b.WriteString("let\n")
	fmt.Fprintf(&b, "  system = %s;\n", nixString(string(drv.System)))
	flakes.writeBindings(&b)
	b.WriteString("in\n")
	b.WriteString("pkgs_0.stdenv.mkDerivation {\n")
	if drv.Version != "" {
		fmt.Fprintf(&b, "  pname = %s;\n", nixString(drv.Name))
		fmt.Fprintf(&b, "  version = %s;\n", nixString(drv.Version))
	} else {
		fmt.Fprintf(&b, "  name = %s;\n", nixString(drv.Name))
	}
	fmt.Fprintf(&b, "  src = builtins.path { path = %s; name = \"source\"; filter = %s; };\n",
		nixString(drv.SourceRoot), sourceFilter(srcfs.DefaultIgnores))
	if drv.LockPath != "" {
		fmt.Fprintf(&b, "  lock = builtins.path { path = %s; name = \"lock\"; };\n", nixString(drv.LockPath))
	}
	fmt.Fprintf(&b, "  nativeBuildInputs = [ %s ];\n", flakes.attr(tc))
	b.WriteString("  dontUnpack = true;\n")
	b.WriteString("  dontConfigure = true;\n")
	b.WriteString("  dontInstall = true;\n")
	fmt.Fprintf(&b, "  passthru.kilnAddress = %s;\n", nixString(drv.Address))
	fmt.Fprintf(&b, "  buildPhase = %s;\n", nixString(buildScript(drv.Steps)))
	b.WriteString("}\n")
	return b.String()
}

// sourceFilter renders a builtins.path filter dropping every entry whose name is one of
// ignores, so the copied source is the tree the content digest covers.
func sourceFilter(ignores []string) string {
	names := make([]string, len(ignores))
	for i, name := range ignores {
		names[i] = nixString(name)
	}
	return fmt.Sprintf("path: _: !(builtins.elem (baseNameOf path) [ %s ])", strings.Join(names, " "))
}

// generateShellExpr renders a mkShell expression providing every package of the shell.
func generateShellExpr(shell *domain.DevShell) string {
	pkgs := shell.Packages()
	flakes := newFlakeSet(pkgs)

	inputs := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		inputs = append(inputs, flakes.attr(p))
	}
	slices.Sort(inputs)
	inputs = slices.Compact(inputs)

	var b strings.Builder
	b.WriteString("let\n")
	fmt.Fprintf(&b, "  system = %s;\n", nixString(string(shell.System)))
	flakes.writeBindings(&b)
	b.WriteString("in\n")
	b.WriteString("pkgs_0.mkShell {\n")
	b.WriteString("  packages = [\n")
	for _, in := range inputs {
		fmt.Fprintf(&b, "    %s\n", in)
	}
	b.WriteString("  ];\n")
	b.WriteString("}\n")
	return b.String()
}

// buildScript renders the steps as a shell script, one command per line.
func buildScript(steps []domain.Step) string {
	var b strings.Builder
	b.WriteString("runHook preBuild\n")
	for _, s := range steps {
		fmt.Fprintf(&b, "# %s\n", s.Name)
		args := make([]string, len(s.Command))
		for i, arg := range s.Command {
			args[i] = shellWord(arg)
		}
		b.WriteString(strings.Join(args, " "))
		b.WriteByte('\n')
	}
	b.WriteString("runHook postBuild\n")
	return b.String()
}

// shellWord quotes arg for sh. A leading placeholder stays expandable.
func shellWord(arg string) string {
	for _, p := range placeholders {
		rest, ok := strings.CutPrefix(arg, p)
		if !ok || (rest != "" && rest[0] != '/') {
			continue
		}
		if rest == "" {
			return `"` + p + `"`
		}
		return `"` + p + `"` + shellWord(rest)
	}
	if bareWord.MatchString(arg) {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

// nixString renders s as a double quoted Nix string literal.
func nixString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "${", `\${`, "\n", `\n`, "\t", `\t`)
	return `"` + r.Replace(s) + `"`
}
