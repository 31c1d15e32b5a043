package cli

import (
	"fmt"
	"io"
	"strings"
)

// completionFlags lists every flag offered by the completion scripts.
var completionFlags = []string{
	"-h", "-help", "-version", "-algo", "-timeout", "-block-width", "-block-height",
	"-json", "-output", "-o", "-progress", "-d", "-details", "-no-color", "-log-level",
	"-server", "-port", "-calibrate", "-calibration-profile", "-completion",
}

var logLevels = []string{"debug", "info", "warn", "error", "disabled"}

// GenerateCompletion writes a completion script for shell.
//
// Parameters:
//   - out: The writer to output the completion script.
//   - shell: "bash", "zsh" or "fish".
//   - algorithms: The registered calculator names.
//
// Returns:
//   - error: An error if the shell is not supported.
func GenerateCompletion(out io.Writer, shell string, algorithms []string) error {
	algos := strings.Join(append(append([]string{}, algorithms...), "all"), " ")
	switch shell {
	case "bash":
		return generateBashCompletion(out, algos)
	case "zsh":
		return generateZshCompletion(out, algos)
	case "fish":
		return generateFishCompletion(out, algos)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: bash, zsh, fish)", shell)
	}
}

func generateBashCompletion(out io.Writer, algos string) error {
	_, err := fmt.Fprintf(out, `# Bash completion script for machin
# Add this to your ~/.bashrc or ~/.bash_completion

_machin_completions() {
    local cur prev
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    case "${prev}" in
        -algo)
            COMPREPLY=( $(compgen -W "%s" -- "${cur}") )
            return 0
            ;;
        -log-level)
            COMPREPLY=( $(compgen -W "%s" -- "${cur}") )
            return 0
            ;;
        -completion)
            COMPREPLY=( $(compgen -W "bash zsh fish" -- "${cur}") )
            return 0
            ;;
        -output|-o|-calibration-profile)
            COMPREPLY=( $(compgen -f -- "${cur}") )
            return 0
            ;;
        -block-width|-block-height)
            COMPREPLY=( $(compgen -W "16 32 64 128 256" -- "${cur}") )
            return 0
            ;;
        -timeout)
            COMPREPLY=( $(compgen -W "30s 1m 5m 30m 1h" -- "${cur}") )
            return 0
            ;;
    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "%s" -- "${cur}") )
    fi
    return 0
}

complete -F _machin_completions machin
`, algos, strings.Join(logLevels, " "), strings.Join(completionFlags, " "))
	return err
}

func generateZshCompletion(out io.Writer, algos string) error {
	_, err := fmt.Fprintf(out, `#compdef machin
# Zsh completion script for machin
# Place this file as _machin in a directory of your $fpath

_machin() {
    _arguments \
        '(-h -help)'{-h,-help}'[show usage]' \
        '-version[print version information]' \
        '-algo[calculator to use]:algorithm:(%s)' \
        '-timeout[maximum execution time]:duration:' \
        '-block-width[output limbs per block]:limbs:' \
        '-block-height[series steps per generation]:steps:' \
        '-json[output the result as JSON]' \
        '(-o -output)'{-o,-output}'[also save the result to a file]:file:_files' \
        '-progress[show block progress]' \
        '(-d -details)'{-d,-details}'[print calculation statistics]' \
        '-no-color[disable colored output]' \
        '-log-level[log level]:level:(%s)' \
        '-server[start the HTTP server]' \
        '-port[server port]:port:' \
        '-calibrate[measure block geometries]' \
        '-calibration-profile[calibration profile path]:file:_files' \
        '-completion[print a completion script]:shell:(bash zsh fish)' \
        '*:formula value:'
}

_machin "$@"
`, algos, strings.Join(logLevels, " "))
	return err
}

func generateFishCompletion(out io.Writer, algos string) error {
	var sb strings.Builder
	sb.WriteString("# Fish completion script for machin\n")
	sb.WriteString("# Save as ~/.config/fish/completions/machin.fish\n\n")
	sb.WriteString("complete -c machin -f\n")
	fmt.Fprintf(&sb, "complete -c machin -o algo -d 'Calculator to use' -xa '%s'\n", algos)
	fmt.Fprintf(&sb, "complete -c machin -o log-level -d 'Log level' -xa '%s'\n", strings.Join(logLevels, " "))
	sb.WriteString("complete -c machin -o completion -d 'Print a completion script' -xa 'bash zsh fish'\n")
	sb.WriteString("complete -c machin -o timeout -d 'Maximum execution time' -x\n")
	sb.WriteString("complete -c machin -o block-width -d 'Output limbs per block' -x\n")
	sb.WriteString("complete -c machin -o block-height -d 'Series steps per generation' -x\n")
	sb.WriteString("complete -c machin -o output -o o -d 'Also save the result to a file' -r -F\n")
	sb.WriteString("complete -c machin -o calibration-profile -d 'Calibration profile path' -r -F\n")
	sb.WriteString("complete -c machin -o port -d 'Server port' -x\n")
	for _, f := range []struct{ name, desc string }{
		{"json", "Output the result as JSON"},
		{"progress", "Show block progress"},
		{"details", "Print calculation statistics"},
		{"no-color", "Disable colored output"},
		{"server", "Start the HTTP server"},
		{"calibrate", "Measure block geometries"},
		{"version", "Print version information"},
	} {
		fmt.Fprintf(&sb, "complete -c machin -o %s -d '%s'\n", f.name, f.desc)
	}
	_, err := io.WriteString(out, sb.String())
	return err
}
