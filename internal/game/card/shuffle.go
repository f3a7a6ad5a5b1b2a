package card

// Shuffle faz a permutação de Fisher–Yates: i vai de n-1 até 1, j é sorteado
// uniformemente em [0, i] e os elementos i e j trocam de lugar.
func Shuffle[T any](items []T, r Source) {
	for i := len(items) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
