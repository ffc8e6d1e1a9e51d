package sim

// Input is the set of logical actions held during one tick.
type Input struct {
	Left, Right, Jump bool
}

// Layout binds typed characters to actions. Several layouts can be active at
// once so players on a Cyrillic keyboard use the same physical keys.
type Layout struct {
	Left, Right, Jump []rune
}

var (
	LayoutLatin    = Layout{Left: []rune{'a'}, Right: []rune{'d'}, Jump: []rune{'w', ' '}}
	LayoutCyrillic = Layout{Left: []rune{'ф'}, Right: []rune{'в'}, Jump: []rune{'ц'}}
)

// DefaultLayouts are the layouts the client samples.
var DefaultLayouts = []Layout{LayoutLatin, LayoutCyrillic}

// SampleInput builds an Input from a held-key predicate across layouts.
func SampleInput(held func(rune) bool, layouts ...Layout) Input {
	var in Input
	for _, l := range layouts {
		in.Left = in.Left || anyHeld(held, l.Left)
		in.Right = in.Right || anyHeld(held, l.Right)
		in.Jump = in.Jump || anyHeld(held, l.Jump)
	}
	return in
}

// Moving reports whether any horizontal key is held, even if they cancel.
func (in Input) Moving() bool {
	return in.Left || in.Right
}

func anyHeld(held func(rune) bool, keys []rune) bool {
	for _, k := range keys {
		if held(k) {
			return true
		}
	}
	return false
}
