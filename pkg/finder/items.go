package finder

// cheeses is the fixed list every default dispatch walks, in order.
var cheeses = [...]string{
	"cheddar",
	"camembert",
	"that runny one",
}

// Items returns a copy of the default item list
func Items() []string {
	out := make([]string, len(cheeses))
	copy(out, cheeses[:])
	return out
}
