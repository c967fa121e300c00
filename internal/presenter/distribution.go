package presenter

import "github.com/raysh454/phishguard/internal/model"

// ChartMax is the fixed upper bound of the chart's y axis.
const ChartMax = 100

// Distribution is the three-way confidence breakdown fed to the chart.
type Distribution struct {
	Benign     float64 `json:"benign"`
	Phishing   float64 `json:"phishing"`
	Defacement float64 `json:"defacement"`
}

// BenignDistribution is what every "Benign" verdict is charted as.
var BenignDistribution = Distribution{Benign: 100, Phishing: 0, Defacement: 0}

// Distribute applies the benign override: a Benign verdict is charted as
// BenignDistribution, anything else passes the raw scores through untouched.
func Distribute(prediction string, scores model.Scores) Distribution {
	if prediction == model.PredictionBenign {
		return BenignDistribution
	}
	return Distribution{
		Benign:     scores.Benign,
		Phishing:   scores.Phishing,
		Defacement: scores.Defacement,
	}
}

// Bar is one column of the confidence chart.
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// Bars returns the chart columns in display order.
func (d Distribution) Bars() []Bar {
	return []Bar{
		{Label: "Benign", Value: d.Benign, Color: "#4CAF50"},
		{Label: "Phishing", Value: d.Phishing, Color: "#FF5733"},
		{Label: "Defacement", Value: d.Defacement, Color: "#FFC107"},
	}
}
