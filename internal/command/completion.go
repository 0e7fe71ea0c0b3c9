// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/fleetctl/fleetctl/internal/meta"
)

const bashCompletionScript = `# bash completion for fleetctl
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_fleetctl()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "run iq sq snapq snapcopy watch completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
  local common="--attrs -a --color -c --filter -f --output -o --sort -s --titles -t --tldr"
  local aws="--profile -p --region -r"

    case "$cmd" in
    run)
      local opts="--action --diff --max-wait --no-wait --poll-interval --schedule --schedules --tag --tldr $aws"
            ;;
        iq)
      local opts="$common --schema --diff --from --tag $aws"
            ;;
        sq)
      local opts="$common --schema --schedules $aws"
            ;;
        snapq)
      local opts="$common --schema --human --instance -i --type $aws"
            ;;
        snapcopy)
      local opts="$common --schema --arn --destination-region -d --instance -i --kms-key --source-region --type --profile -p"
            ;;
        watch)
      local opts="--interval --schedule --schedules --tag --tldr $aws"
            ;;
        completion)
            local opts="bash zsh"
            COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    if [[ "$prev" == "--output" || "$prev" == "-o" ]]; then
        COMPREPLY=( $(compgen -W "text json raw yaml" -- "$cur") )
        return 0
    fi

    if [[ "$prev" == "--action" ]]; then
        COMPREPLY=( $(compgen -W "Start Stop" -- "$cur") )
        return 0
    fi

  # If current token starts with '-', offer flags
  if [[ "$cur" == -* ]]; then
    COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    return 0
  fi

  # Otherwise, we're on the (optional) event document positional
  COMPREPLY=( $(compgen -f -- "$cur") )
  return 0
}

complete -F _fleetctl fleetctl
`

const zshCompletionScript = `#compdef fleetctl

_fleetctl() {
  local -a cmds
  cmds=(
    'run:run a fleet action'
    'iq:instance query'
    'sq:schedule query'
    'snapq:snapshot query'
    'snapcopy:copy snapshots across regions'
    'watch:watch fleet states live'
    'completion:generate shell completion script'
  )

  local -a common
  common=(
  '(-a --attrs)'{-a,--attrs}'[attributes to include]:attrs'
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-f --filter)'{-f,--filter}'[filters to apply]:filters'
  '(-o --output)'{-o,--output}'[output format]:format:(text json raw yaml)'
  '(-s --sort)'{-s,--sort}'[sort attributes]:attrs'
  '(-t --titles)'{-t,--titles}'[show titles]'
  '--tldr[show tldr page]'
  )

  local -a aws
  aws=(
  '(-p --profile)'{-p,--profile}'[credential profile]:profile'
  '(-r --region)'{-r,--region}'[region]:region'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'fleetctl commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    run)
      _arguments -C \
        $aws \
        '--action[action to run]:action:(Start Stop)' \
        '--diff[show state changes once the batch settles]' \
        '--max-wait[longest time to wait]:duration' \
        '--no-wait[dispatch and exit]' \
        '--poll-interval[time between polls]:duration' \
        '--schedule[named schedule to target]:name' \
        '--schedules[schedule document location]:location:_files' \
        '*--tag[tag predicate]:Key=Value' \
        '::event document:_files'
      ;;
    iq)
      _arguments -C \
        $common \
        $aws \
        '--schema[dump schema]' \
        '--diff[find difference between two fleet states]' \
        '--from[render a saved describe document]:file:_files' \
        '*--tag[tag predicate]:Key=Value'
      ;;
    sq)
      _arguments -C \
        $common \
        $aws \
        '--schema[dump schema]' \
        '--schedules[schedule document location]:location:_files' \
        '::schedule document:_files'
      ;;
    snapq)
      _arguments -C \
        $common \
        $aws \
        '--schema[dump schema]' \
        '--human[humanized storage sizes]' \
        '(-i --instance)'{-i,--instance}'[database instance]:instance' \
        '--type[snapshot type]:type:(automated manual shared public awsbackup)'
      ;;
    snapcopy)
      _arguments -C \
        $common \
        '--schema[dump schema]' \
        '*--arn[snapshot ARN to copy]:arn' \
        '(-d --destination-region)'{-d,--destination-region}'[destination region]:region' \
        '(-i --instance)'{-i,--instance}'[database instance]:instance' \
        '--kms-key[KMS key for the copies]:key' \
        '(-p --profile)'{-p,--profile}'[credential profile]:profile' \
        '--source-region[source region]:region' \
        '--type[snapshot type]:type:(automated manual shared public awsbackup)' \
        '::event document:_files'
      ;;
    watch)
      _arguments -C \
        $aws \
        '--interval[time between polls]:duration' \
        '--schedule[named schedule to target]:name' \
        '--schedules[schedule document location]:location:_files' \
        '*--tag[tag predicate]:Key=Value'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $common
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys
# is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _fleetctl fleetctl fleetctl
`

func completionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	switch shell {
	case "bash":
		fmt.Fprint(os.Stdout, bashCompletionScript)
	case "zsh":
		fmt.Fprint(os.Stdout, zshCompletionScript)
	default:
		// Try to detect from SHELL or print help
		sh := os.Getenv("SHELL")
		switch {
		case strings.HasSuffix(sh, "zsh"):
			fmt.Fprint(os.Stdout, zshCompletionScript)
		case strings.HasSuffix(sh, "bash"):
			fmt.Fprint(os.Stdout, bashCompletionScript)
		default:
			fmt.Fprintln(os.Stderr, "usage: fleetctl completion [bash|zsh]")
			return nil
		}
	}
	return nil
}

func completionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "fleetctl completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: completionCommandAction,
	}
}
