package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
)

func handleCompletion(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("completion", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: mdcsync completion [bash|zsh|fish]")
	}
	shell := fs.Arg(0)
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		return fmt.Errorf("unknown shell: %s", shell)
	}
	return nil
}

const bashCompletion = `# bash completion for mdcsync
_mdcsync_completions()
{
    local cur prev words cword
    _init_completion || return
    local cmds="config status install install-list delete-list update-list check store doctor tui version help completion"
    if [[ ${cword} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "${cmds}" -- "$cur") )
        return
    fi
    case ${words[1]} in
        config)
            COMPREPLY=( $(compgen -W "validate print wizard --config --log-level --json --out" -- "$cur") ) ;;
        status)
            COMPREPLY=( $(compgen -W "--config --log-level --json --offline --history" -- "$cur") ) ;;
        install|check)
            COMPREPLY=( $(compgen -W "--config --log-level --json" -- "$cur") ) ;;
        install-list|delete-list|update-list)
            COMPREPLY=( $(compgen -W "required optional boost --config --log-level --json" -- "$cur") ) ;;
        store)
            COMPREPLY=( $(compgen -W "list clear --config --log-level --json --history" -- "$cur") ) ;;
        doctor)
            COMPREPLY=( $(compgen -W "--config --verbose" -- "$cur") ) ;;
        tui)
            COMPREPLY=( $(compgen -W "--config --log-level --log-file" -- "$cur") ) ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh fish" -- "$cur") ) ;;
        *) ;;
    esac
}
complete -F _mdcsync_completions mdcsync
`

const zshCompletion = `#compdef mdcsync
# zsh completion for mdcsync (basic)
_mdcsync() {
  local -a cmds
  cmds=(config status install install-list delete-list update-list check store doctor tui version help completion)
  if (( CURRENT == 2 )); then
    _describe 'command' cmds
    return
  fi
  case $words[2] in
    config)
      _arguments '*:options:(--config --log-level --json --out validate print wizard)'
      ;;
    status)
      _arguments '*:options:(--config --log-level --json --offline --history)'
      ;;
    install|check)
      _arguments '*:options:(--config --log-level --json)'
      ;;
    install-list|delete-list|update-list)
      _arguments '*:options:(required optional boost --config --log-level --json)'
      ;;
    store)
      _arguments '*:options:(list clear --config --log-level --json --history)'
      ;;
    doctor)
      _arguments '*:options:(--config --verbose)'
      ;;
    tui)
      _arguments '*:options:(--config --log-level --log-file)'
      ;;
    completion)
      _arguments '*:options:(bash zsh fish)'
      ;;
  esac
}
compdef _mdcsync mdcsync
`

const fishCompletion = `# fish completion for mdcsync
complete -c mdcsync -f -n "__fish_use_subcommand" -a "config" -d "config ops"
complete -c mdcsync -f -n "__fish_use_subcommand" -a "status" -d "show installed state"
complete -c mdcsync -f -n "__fish_use_subcommand" -a "install" -d "install all dependencies"
complete -c mdcsync -f -n "__fish_use_subcommand" -a "install-list" -d "install a dependency list"
complete -c mdcsync -f -n "__fish_use_subcommand" -a "delete-list" -d "delete a dependency list"
complete -c mdcsync -f -n "__fish_use_subcommand" -a "update-list" -d "update a dependency list"
complete -c mdcsync -f -n "__fish_use_subcommand" -a "check" -d "re-check dependencies"
complete -c mdcsync -f -n "__fish_use_subcommand" -a "store" -d "local settings store"
complete -c mdcsync -f -n "__fish_use_subcommand" -a "doctor" -d "diagnostics"
complete -c mdcsync -f -n "__fish_use_subcommand" -a "tui" -d "dashboard"
complete -c mdcsync -f -n "__fish_use_subcommand" -a "version" -d "print version"
complete -c mdcsync -f -n "__fish_use_subcommand" -a "completion" -d "shell completions"
complete -c mdcsync -n "__fish_seen_subcommand_from status" -l offline -d "Read from the local store"
complete -c mdcsync -n "__fish_seen_subcommand_from status" -l history -d "Show last N actions"
complete -c mdcsync -n "__fish_seen_subcommand_from install-list delete-list update-list" -a "required optional boost"
complete -c mdcsync -n "__fish_seen_subcommand_from store" -a "list clear"

# Common flags
for cmd in config status install install-list delete-list update-list check store tui
  complete -c mdcsync -n "__fish_seen_subcommand_from $cmd" -l config -d "Path to config"
  complete -c mdcsync -n "__fish_seen_subcommand_from $cmd" -l log-level -d "Log level"
  complete -c mdcsync -n "__fish_seen_subcommand_from $cmd" -l json -d "JSON output"
end
complete -c mdcsync -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
