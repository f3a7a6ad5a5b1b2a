package card

// Symbols são os 10 desenhos possíveis. A fábrica de baralho usa Symbols[i%10].
var Symbols = []Symbol{
	"heart", "star", "diamond", "clover", "crown",
	"moon", "sun", "lightning", "fire", "water",
}

// DefaultStyles é o pacote gratuito. Bots sorteiam um estilo daqui.
var DefaultStyles = []Style{
	"neon-circuit",
	"arcane-sigil",
	"minimal-prime",
	"flux-ember",
}

var allowedSymbols map[Symbol]struct{}

func init() {
	allowedSymbols = make(map[Symbol]struct{}, len(Symbols))
	for _, s := range Symbols {
		allowedSymbols[s] = struct{}{}
	}
}

// IsSymbol informa se o símbolo faz parte do catálogo.
func IsSymbol(s Symbol) bool {
	_, ok := allowedSymbols[s]
	return ok
}

// SymbolAt devolve o símbolo da i-ésima carta de um estilo.
func SymbolAt(i int) Symbol {
	return Symbols[i%len(Symbols)]
}

// PickStyle escolhe um estilo do catálogo que não esteja em 'taken'.
// Retorna "" se todos estiverem ocupados.
func PickStyle(r Source, taken ...Style) Style {
	used := make(map[Style]struct{}, len(taken))
	for _, s := range taken {
		used[s] = struct{}{}
	}

	free := make([]Style, 0, len(DefaultStyles))
	for _, s := range DefaultStyles {
		if _, ok := used[s]; !ok {
			free = append(free, s)
		}
	}
	if len(free) == 0 {
		return ""
	}
	return free[r.IntN(len(free))]
}
