package compiler

import "github.com/wudi/vela/opcodes"

func (c *Compiler) pushLoop(label string, continueOK bool) {
	c.u.loops = append(c.u.loops, loopCtx{label: label, continueOK: continueOK})
}

func (c *Compiler) popLoop() loopCtx {
	l := c.u.loops[len(c.u.loops)-1]
	c.u.loops = c.u.loops[:len(c.u.loops)-1]
	return l
}

func (c *Compiler) currentLoop() *loopCtx { return &c.u.loops[len(c.u.loops)-1] }

// findLoop resolves a break/continue target: unlabeled ones bind to the
// nearest breakable (continueOK irrelevant for break, required true for
// continue); labeled ones walk outward for a matching label.
func (c *Compiler) findLoop(label string, forContinue bool) *loopCtx {
	for i := len(c.u.loops) - 1; i >= 0; i-- {
		l := &c.u.loops[i]
		if label != "" {
			if l.label == label {
				return l
			}
			continue
		}
		if forContinue && !l.continueOK {
			continue
		}
		return l
	}
	return nil
}

func (c *Compiler) emitBreak(label string) {
	l := c.findLoop(label, false)
	if l == nil {
		return
	}
	lbl := c.emitJump(opcodes.Jump)
	l.breakLabels = append(l.breakLabels, lbl)
}

func (c *Compiler) emitContinue(label string) {
	l := c.findLoop(label, true)
	if l == nil {
		return
	}
	lbl := c.emitJump(opcodes.Jump)
	l.continueLabels = append(l.continueLabels, lbl)
}

func (c *Compiler) patchAll(labels []opcodes.Label, addr int) {
	for _, l := range labels {
		c.u.writer.PatchTo(l, addr)
	}
}
