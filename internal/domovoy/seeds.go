package domovoy

import (
	"time"

	"NewsCourier/internal/domain"
)

// Seed is one fixed quote/thought the house-voice generator riffs on.
type Seed struct {
	Key  string
	Text string
}

// The seed corpus is deliberately small and static: variety comes from the
// generation step, the corpus only anchors the tone.
var seedPool = map[string][]Seed{
	"en": {
		{Key: "hearth", Text: "A house is alive while someone tends its fire."},
		{Key: "threshold", Text: "Every threshold remembers who crossed it kindly."},
		{Key: "quiet", Text: "Quiet work keeps more order than loud rules."},
		{Key: "bread", Text: "Shared bread weighs less than bread kept back."},
		{Key: "lamp", Text: "A lamp in the window costs little and saves travelers."},
		{Key: "broom", Text: "Sweep your own corner before judging the square."},
	},
	"ru": {
		{Key: "hearth", Text: "Дом жив, пока кто-то хранит его огонь."},
		{Key: "threshold", Text: "Каждый порог помнит, кто переступил его с добром."},
		{Key: "quiet", Text: "Тихая работа держит больше порядка, чем громкие правила."},
		{Key: "bread", Text: "Разделённый хлеб легче хлеба припрятанного."},
		{Key: "lamp", Text: "Лампа в окне стоит мало, а путников спасает."},
		{Key: "broom", Text: "Подмети свой угол, прежде чем судить площадь."},
	},
	"sr": {
		{Key: "hearth", Text: "Кућа је жива док неко чува њену ватру."},
		{Key: "threshold", Text: "Сваки праг памти ко га је прешао с добром."},
		{Key: "quiet", Text: "Тихи рад чува више реда него гласна правила."},
		{Key: "bread", Text: "Подељен хлеб је лакши од хлеба сакривеног."},
		{Key: "lamp", Text: "Лампа у прозору кошта мало, а спасава путнике."},
		{Key: "broom", Text: "Почисти свој угао пре него што судиш тргу."},
	},
}

// Seeds returns the pool for a language, defaulting to English.
func Seeds(lang string) []Seed {
	if pool, ok := seedPool[lang]; ok {
		return pool
	}
	return seedPool["en"]
}

// PickSeed selects the first pool seed not used within the rotation window.
// When the whole pool is exhausted the history is cleared and selection
// restarts from the top: liveness beats strict non-repetition. The second
// return value reports whether the history was cleared.
func PickSeed(pool []Seed, state domain.SeedRotationState, now time.Time) (Seed, bool) {
	used := state.UsedWithin(now)
	for _, seed := range pool {
		if !used[seed.Key] {
			return seed, false
		}
	}
	return pool[0], true
}
