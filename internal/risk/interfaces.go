package risk

// Label 整体结论的风险等级
type Label string

const (
	LabelCritical Label = "Critical"
	LabelHigh     Label = "High"
	LabelMedium   Label = "Medium"
	LabelLow      Label = "Low"
	LabelPraise   Label = "Praise"
)

// Style 等级对应的展示样式
type Style struct {
	Emoji   string `json:"emoji"`
	Meaning string `json:"meaning"`
}

var styles = map[Label]Style{
	LabelCritical: {Emoji: "🔴", Meaning: "Very high risk, proceed only if you know what you are doing"},
	LabelHigh:     {Emoji: "🟠", Meaning: "High risk, suspicious, careful evaluation needed"},
	LabelMedium:   {Emoji: "🟡", Meaning: "Some risk factors, watch out"},
	LabelLow:      {Emoji: "🟢", Meaning: "Minimal risk, but still a risk"},
	LabelPraise:   {Emoji: "⚪", Meaning: "Positive practices, no issues detected"},
}

// StyleFor returns the display style of a label. Unknown labels render as Low.
func StyleFor(label Label) Style {
	if s, ok := styles[label]; ok {
		return s
	}
	return styles[LabelLow]
}
