package slug

// termTable maps known Japanese domain terms to English slug tokens.
// Ordered longest-first so compound words are replaced before their parts.
var termTable = []struct{ jp, en string }{
	{"スマートフォン", "smartphone"},
	{"プラットフォーム", "platform"},
	{"インターネット", "internet"},
	{"コンピュータ", "computer"},
	{"ソフトウェア", "software"},
	{"ハードウェア", "hardware"},
	{"セキュリティ", "security"},
	{"プライバシー", "privacy"},
	{"アップデート", "update"},
	{"リリース", "release"},
	{"サービス", "service"},
	{"ビジネス", "business"},
	{"システム", "system"},
	{"ユーザー", "user"},
	{"デバイス", "device"},
	{"オンライン", "online"},
	{"クラウド", "cloud"},
	{"データ", "data"},
	{"ツール", "tool"},
	{"アプリ", "app"},
	{"ウェブ", "web"},

	{"ニュース", "news"},
	{"新機能", "new-feature"},
	{"技術", "tech"},
	{"動向", "trends"},
	{"最新", "latest"},
	{"情報", "info"},
	{"まとめ", "summary"},
	{"今日", "today"},
	{"本日", "today"},
	{"発表", "announcement"},
	{"開発", "development"},
	{"機能", "feature"},
	{"企業", "company"},
	{"市場", "market"},
	{"業界", "industry"},
	{"分析", "analysis"},
	{"予測", "prediction"},
	{"研究", "research"},
	{"導入", "introduction"},
	{"採用", "adoption"},
	{"活用", "utilization"},
	{"効果", "effect"},
	{"影響", "impact"},
	{"変化", "change"},
	{"進歩", "progress"},
	{"革新的", "innovative"},
	{"革新", "innovation"},
	{"改善", "improvement"},
	{"向上", "enhancement"},
	{"課題", "challenge"},
	{"問題", "issue"},
	{"解決", "solution"},
	{"対策", "measure"},
	{"方法", "method"},
	{"手法", "approach"},
	{"戦略", "strategy"},
	{"計画", "plan"},
	{"目標", "goal"},
	{"成果", "result"},
	{"結果", "outcome"},
	{"報告", "report"},
	{"発見", "discovery"},
	{"特徴", "feature"},
	{"価格", "price"},
	{"費用", "cost"},
	{"無料", "free"},
	{"有料", "paid"},
	{"比較", "comparison"},
	{"検証", "verification"},
	{"速報", "breaking"},
	{"未来", "future"},
	{"体験", "experience"},
	{"医療", "medical"},
	{"分野", "field"},
	{"自動", "auto"},
	{"運転", "driving"},
	{"検索", "search"},
	{"拡張", "expansion"},
	{"統合", "integration"},
	{"公開", "release"},
	{"性能", "performance"},
	{"大幅", "significant"},
	{"自然", "natural"},
	{"対話", "conversation"},
	{"可能", "possible"},
	{"搭載", "equipped"},
}

// kanaDigraphs are katakana pairs that romanize as one syllable.
// Checked before single kana so キャ does not become kiya.
var kanaDigraphs = map[string]string{
	"キャ": "kya", "キュ": "kyu", "キョ": "kyo",
	"シャ": "sha", "シュ": "shu", "ショ": "sho", "シェ": "she",
	"チャ": "cha", "チュ": "chu", "チョ": "cho", "チェ": "che",
	"ニャ": "nya", "ニュ": "nyu", "ニョ": "nyo",
	"ヒャ": "hya", "ヒュ": "hyu", "ヒョ": "hyo",
	"ミャ": "mya", "ミュ": "myu", "ミョ": "myo",
	"リャ": "rya", "リュ": "ryu", "リョ": "ryo",
	"ギャ": "gya", "ギュ": "gyu", "ギョ": "gyo",
	"ジャ": "ja", "ジュ": "ju", "ジョ": "jo", "ジェ": "je",
	"ビャ": "bya", "ビュ": "byu", "ビョ": "byo",
	"ピャ": "pya", "ピュ": "pyu", "ピョ": "pyo",
	"ファ": "fa", "フィ": "fi", "フェ": "fe", "フォ": "fo",
	"ヴァ": "va", "ヴィ": "vi", "ヴェ": "ve", "ヴォ": "vo",
	"ティ": "ti", "ディ": "di", "デュ": "dyu",
	"ウィ": "wi", "ウェ": "we", "ウォ": "wo",
}

// kanaSingles romanize single katakana.
var kanaSingles = map[rune]string{
	'ア': "a", 'イ': "i", 'ウ': "u", 'エ': "e", 'オ': "o",
	'カ': "ka", 'キ': "ki", 'ク': "ku", 'ケ': "ke", 'コ': "ko",
	'サ': "sa", 'シ': "shi", 'ス': "su", 'セ': "se", 'ソ': "so",
	'タ': "ta", 'チ': "chi", 'ツ': "tsu", 'テ': "te", 'ト': "to",
	'ナ': "na", 'ニ': "ni", 'ヌ': "nu", 'ネ': "ne", 'ノ': "no",
	'ハ': "ha", 'ヒ': "hi", 'フ': "fu", 'ヘ': "he", 'ホ': "ho",
	'マ': "ma", 'ミ': "mi", 'ム': "mu", 'メ': "me", 'モ': "mo",
	'ヤ': "ya", 'ユ': "yu", 'ヨ': "yo",
	'ラ': "ra", 'リ': "ri", 'ル': "ru", 'レ': "re", 'ロ': "ro",
	'ワ': "wa", 'ヲ': "o", 'ン': "n",
	'ガ': "ga", 'ギ': "gi", 'グ': "gu", 'ゲ': "ge", 'ゴ': "go",
	'ザ': "za", 'ジ': "ji", 'ズ': "zu", 'ゼ': "ze", 'ゾ': "zo",
	'ダ': "da", 'ヂ': "ji", 'ヅ': "zu", 'デ': "de", 'ド': "do",
	'バ': "ba", 'ビ': "bi", 'ブ': "bu", 'ベ': "be", 'ボ': "bo",
	'パ': "pa", 'ピ': "pi", 'プ': "pu", 'ペ': "pe", 'ポ': "po",
	'ヴ': "vu",
	'ァ': "a", 'ィ': "i", 'ゥ': "u", 'ェ': "e", 'ォ': "o",
	'ャ': "ya", 'ュ': "yu", 'ョ': "yo",
}

// romanizeKatakana converts katakana runs to Hepburn-style romaji. The
// sokuon (ッ) doubles the next consonant; the long-vowel mark (ー) is
// dropped. Non-katakana runes pass through unchanged.
func romanizeKatakana(s string) string {
	runes := []rune(s)
	var out []byte
	pendingSokuon := false

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == 'ッ' {
			pendingSokuon = true
			continue
		}
		if r == 'ー' {
			continue
		}

		var syllable string
		if i+1 < len(runes) {
			if d, ok := kanaDigraphs[string(runes[i:i+2])]; ok {
				syllable = d
				i++
			}
		}
		if syllable == "" {
			if single, ok := kanaSingles[r]; ok {
				syllable = single
			}
		}

		if syllable == "" {
			pendingSokuon = false
			out = append(out, string(r)...)
			continue
		}
		if pendingSokuon && len(syllable) > 0 && syllable[0] != 'a' && syllable[0] != 'i' &&
			syllable[0] != 'u' && syllable[0] != 'e' && syllable[0] != 'o' && syllable[0] != 'n' {
			out = append(out, syllable[0])
		}
		pendingSokuon = false
		out = append(out, syllable...)
	}
	return string(out)
}
