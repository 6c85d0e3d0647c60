package pattern

// defaultEntries is the builtin romaji table. Declaration order of the
// spellings inside one entry is the tie-break order used by the matcher,
// so the conventional short form comes first where one exists.
var defaultEntries = []Entry{
	{Unit: "あ", Spellings: []string{"a"}},
	{Unit: "い", Spellings: []string{"i", "yi"}},
	{Unit: "う", Spellings: []string{"u", "wu", "whu"}},
	{Unit: "え", Spellings: []string{"e"}},
	{Unit: "お", Spellings: []string{"o"}},

	{Unit: "か", Spellings: []string{"ka", "ca"}},
	{Unit: "き", Spellings: []string{"ki"}},
	{Unit: "く", Spellings: []string{"ku", "cu", "qu"}},
	{Unit: "け", Spellings: []string{"ke"}},
	{Unit: "こ", Spellings: []string{"ko", "co"}},

	{Unit: "さ", Spellings: []string{"sa"}},
	{Unit: "し", Spellings: []string{"si", "shi", "ci"}},
	{Unit: "す", Spellings: []string{"su"}},
	{Unit: "せ", Spellings: []string{"se", "ce"}},
	{Unit: "そ", Spellings: []string{"so"}},

	{Unit: "た", Spellings: []string{"ta"}},
	{Unit: "ち", Spellings: []string{"ti", "chi"}},
	{Unit: "つ", Spellings: []string{"tu", "tsu"}},
	{Unit: "て", Spellings: []string{"te"}},
	{Unit: "と", Spellings: []string{"to"}},

	{Unit: "な", Spellings: []string{"na"}},
	{Unit: "に", Spellings: []string{"ni"}},
	{Unit: "ぬ", Spellings: []string{"nu"}},
	{Unit: "ね", Spellings: []string{"ne"}},
	{Unit: "の", Spellings: []string{"no"}},

	{Unit: "は", Spellings: []string{"ha"}},
	{Unit: "ひ", Spellings: []string{"hi"}},
	{Unit: "ふ", Spellings: []string{"hu", "fu"}},
	{Unit: "へ", Spellings: []string{"he"}},
	{Unit: "ほ", Spellings: []string{"ho"}},

	{Unit: "ま", Spellings: []string{"ma"}},
	{Unit: "み", Spellings: []string{"mi"}},
	{Unit: "む", Spellings: []string{"mu"}},
	{Unit: "め", Spellings: []string{"me"}},
	{Unit: "も", Spellings: []string{"mo"}},

	{Unit: "や", Spellings: []string{"ya"}},
	{Unit: "ゆ", Spellings: []string{"yu"}},
	{Unit: "よ", Spellings: []string{"yo"}},

	{Unit: "ら", Spellings: []string{"ra"}},
	{Unit: "り", Spellings: []string{"ri"}},
	{Unit: "る", Spellings: []string{"ru"}},
	{Unit: "れ", Spellings: []string{"re"}},
	{Unit: "ろ", Spellings: []string{"ro"}},

	{Unit: "わ", Spellings: []string{"wa"}},
	{Unit: "を", Spellings: []string{"wo"}},
	{Unit: "ん", Spellings: []string{"nn", "xn"}},

	{Unit: "が", Spellings: []string{"ga"}},
	{Unit: "ぎ", Spellings: []string{"gi"}},
	{Unit: "ぐ", Spellings: []string{"gu"}},
	{Unit: "げ", Spellings: []string{"ge"}},
	{Unit: "ご", Spellings: []string{"go"}},

	{Unit: "ざ", Spellings: []string{"za"}},
	{Unit: "じ", Spellings: []string{"zi", "ji"}},
	{Unit: "ず", Spellings: []string{"zu"}},
	{Unit: "ぜ", Spellings: []string{"ze"}},
	{Unit: "ぞ", Spellings: []string{"zo"}},

	{Unit: "だ", Spellings: []string{"da"}},
	{Unit: "ぢ", Spellings: []string{"di"}},
	{Unit: "づ", Spellings: []string{"du"}},
	{Unit: "で", Spellings: []string{"de"}},
	{Unit: "ど", Spellings: []string{"do"}},

	{Unit: "ば", Spellings: []string{"ba"}},
	{Unit: "び", Spellings: []string{"bi"}},
	{Unit: "ぶ", Spellings: []string{"bu"}},
	{Unit: "べ", Spellings: []string{"be"}},
	{Unit: "ぼ", Spellings: []string{"bo"}},

	{Unit: "ぱ", Spellings: []string{"pa"}},
	{Unit: "ぴ", Spellings: []string{"pi"}},
	{Unit: "ぷ", Spellings: []string{"pu"}},
	{Unit: "ぺ", Spellings: []string{"pe"}},
	{Unit: "ぽ", Spellings: []string{"po"}},

	{Unit: "ゔ", Spellings: []string{"vu"}},

	// Youon digraphs. Two-rune units win over single runes during
	// segmentation, so these shadow the standalone small kana below.
	{Unit: "きゃ", Spellings: []string{"kya"}},
	{Unit: "きゅ", Spellings: []string{"kyu"}},
	{Unit: "きょ", Spellings: []string{"kyo"}},
	{Unit: "しゃ", Spellings: []string{"sya", "sha"}},
	{Unit: "しゅ", Spellings: []string{"syu", "shu"}},
	{Unit: "しょ", Spellings: []string{"syo", "sho"}},
	{Unit: "しぇ", Spellings: []string{"sye", "she"}},
	{Unit: "ちゃ", Spellings: []string{"tya", "cha"}},
	{Unit: "ちゅ", Spellings: []string{"tyu", "chu"}},
	{Unit: "ちょ", Spellings: []string{"tyo", "cho"}},
	{Unit: "ちぇ", Spellings: []string{"tye", "che"}},
	{Unit: "にゃ", Spellings: []string{"nya"}},
	{Unit: "にゅ", Spellings: []string{"nyu"}},
	{Unit: "にょ", Spellings: []string{"nyo"}},
	{Unit: "ひゃ", Spellings: []string{"hya"}},
	{Unit: "ひゅ", Spellings: []string{"hyu"}},
	{Unit: "ひょ", Spellings: []string{"hyo"}},
	{Unit: "みゃ", Spellings: []string{"mya"}},
	{Unit: "みゅ", Spellings: []string{"myu"}},
	{Unit: "みょ", Spellings: []string{"myo"}},
	{Unit: "りゃ", Spellings: []string{"rya"}},
	{Unit: "りゅ", Spellings: []string{"ryu"}},
	{Unit: "りょ", Spellings: []string{"ryo"}},
	{Unit: "ぎゃ", Spellings: []string{"gya"}},
	{Unit: "ぎゅ", Spellings: []string{"gyu"}},
	{Unit: "ぎょ", Spellings: []string{"gyo"}},
	{Unit: "じゃ", Spellings: []string{"zya", "ja", "jya"}},
	{Unit: "じゅ", Spellings: []string{"zyu", "ju", "jyu"}},
	{Unit: "じょ", Spellings: []string{"zyo", "jo", "jyo"}},
	{Unit: "じぇ", Spellings: []string{"zye", "je"}},
	{Unit: "ぢゃ", Spellings: []string{"dya"}},
	{Unit: "ぢゅ", Spellings: []string{"dyu"}},
	{Unit: "ぢょ", Spellings: []string{"dyo"}},
	{Unit: "びゃ", Spellings: []string{"bya"}},
	{Unit: "びゅ", Spellings: []string{"byu"}},
	{Unit: "びょ", Spellings: []string{"byo"}},
	{Unit: "ぴゃ", Spellings: []string{"pya"}},
	{Unit: "ぴゅ", Spellings: []string{"pyu"}},
	{Unit: "ぴょ", Spellings: []string{"pyo"}},

	{Unit: "ふぁ", Spellings: []string{"fa"}},
	{Unit: "ふぃ", Spellings: []string{"fi"}},
	{Unit: "ふぇ", Spellings: []string{"fe"}},
	{Unit: "ふぉ", Spellings: []string{"fo"}},
	{Unit: "てぃ", Spellings: []string{"thi"}},
	{Unit: "でぃ", Spellings: []string{"dhi"}},
	{Unit: "うぃ", Spellings: []string{"wi"}},
	{Unit: "うぇ", Spellings: []string{"we"}},

	// Standalone small kana.
	{Unit: "ぁ", Spellings: []string{"xa", "la"}},
	{Unit: "ぃ", Spellings: []string{"xi", "li"}},
	{Unit: "ぅ", Spellings: []string{"xu", "lu"}},
	{Unit: "ぇ", Spellings: []string{"xe", "le"}},
	{Unit: "ぉ", Spellings: []string{"xo", "lo"}},
	{Unit: "ゃ", Spellings: []string{"xya", "lya"}},
	{Unit: "ゅ", Spellings: []string{"xyu", "lyu"}},
	{Unit: "ょ", Spellings: []string{"xyo", "lyo"}},
	{Unit: "ゎ", Spellings: []string{"xwa", "lwa"}},
	{Unit: "っ", Spellings: []string{"xtu", "ltu", "xtsu", "ltsu"}},

	{Unit: "ー", Spellings: []string{"-"}},
	{Unit: "、", Spellings: []string{","}},
	{Unit: "。", Spellings: []string{"."}},
	{Unit: "・", Spellings: []string{"/"}},
}
