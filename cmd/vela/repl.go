package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/tidwall/sjson"

	"github.com/wudi/vela/config"
	"github.com/wudi/vela/engine"
	"github.com/wudi/vela/parser"
)

// runRepl starts an interactive line-editing session over one persistent
// Context, the way the teacher's `hey -a` shell keeps one ExecutionContext
// alive across lines so variables declared on one line are visible on the
// next. `.globals` and `.disasm` are introspection commands layered on
// top of that, not part of the language itself.
func runRepl(cfg config.RealmConfig) error {
	c := engine.New(cfg, engine.ParserFunc(parser.Parse))
	engine.Bootstrap(c, nil)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "vela> ",
		HistoryFile:     "",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Println("vela REPL — type .exit to quit, .globals to list bound names, .disasm <src> to dump bytecode")

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case line == ".exit":
			return nil
		case line == ".globals":
			printGlobals(c)
			continue
		case strings.HasPrefix(line, ".disasm "):
			printDisasm(c, strings.TrimPrefix(line, ".disasm "))
			continue
		}

		v, err := c.Execute([]byte(line))
		if err != nil {
			fmt.Println(c.FormatError(err))
			continue
		}
		if !v.IsUndefined() {
			fmt.Println(v.Inspect())
		}
	}
}

func printGlobals(c *engine.Context) {
	for _, name := range c.Globals() {
		kind, _ := c.Registry.KindOf(name)
		fmt.Printf("  %-20s %s\n", name, kind)
	}
}

func printDisasm(c *engine.Context, src string) {
	block, err := c.Compile([]byte(src))
	if err != nil {
		fmt.Println(c.FormatError(err))
		return
	}
	doc, jerr := sjson.Set("{}", "name", block.Name)
	if jerr != nil {
		fmt.Println(jerr)
		return
	}
	doc, jerr = sjson.Set(doc, "bytes", len(block.Code))
	if jerr != nil {
		fmt.Println(jerr)
		return
	}
	doc, jerr = sjson.Set(doc, "constants", len(block.Constants))
	if jerr != nil {
		fmt.Println(jerr)
		return
	}
	doc, jerr = sjson.Set(doc, "functions", len(block.Functions))
	if jerr != nil {
		fmt.Println(jerr)
		return
	}
	fmt.Println(doc)
	fmt.Println(engine.DumpCodeBlock(block))
}
