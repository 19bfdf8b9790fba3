package keyword

// Language selects which built-in keyword set to use.
type Language string

const (
	LangEN   Language = "en"
	LangZH   Language = "zh"
	LangBoth Language = "both"
)

// DefaultEN is the built-in English heart-disease keyword set.
var DefaultEN = []string{
	"heart disease",
	"cardiac",
	"cardiovascular",
	"coronary",
	"coronary artery",
	"CAD",
	"atherosclerosis",
	"angina",
	"myocardial infarction",
	"MI",
	"STEMI",
	"NSTEMI",
	"myocarditis",
	"pericarditis",
	"endocarditis",
	"heart failure",
	"CHF",
	"cardiomyopathy",
	"arrhythmia",
	"atrial fibrillation",
	"AFib",
	"ventricular tachycardia",
	"ventricular fibrillation",
	"valvular",
	"aortic stenosis",
	"mitral regurgitation",
}

// DefaultZH is the built-in Chinese heart-disease keyword set.
var DefaultZH = []string{
	"心脏病",
	"心脏",
	"冠心病",
	"冠状动脉",
	"心肌梗死",
	"心梗",
	"心绞痛",
	"心衰",
	"心力衰竭",
	"心律失常",
	"房颤",
	"心肌炎",
	"心包炎",
	"心内膜炎",
	"心肌病",
	"瓣膜",
	"动脉粥样硬化",
}

// Defaults returns a copy of the built-in keyword set for lang. An
// unknown language is treated as LangBoth.
func Defaults(lang Language) []string {
	var out []string
	if lang == LangEN || lang != LangZH {
		out = append(out, DefaultEN...)
	}
	if lang == LangZH || lang != LangEN {
		out = append(out, DefaultZH...)
	}
	return out
}

// ValidLanguage reports whether lang is one of en, zh, both.
func ValidLanguage(lang Language) bool {
	switch lang {
	case LangEN, LangZH, LangBoth:
		return true
	}
	return false
}
