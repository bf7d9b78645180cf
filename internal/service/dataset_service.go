package service

import (
	"github.com/noah-isme/sentiment-probe/internal/dto"
	"github.com/noah-isme/sentiment-probe/internal/models"
)

// DatasetService exposes the built-in course-evaluation dataset.
type DatasetService interface {
	Default() dto.DatasetResponse
	Items() []dto.DatasetItem
}

type datasetService struct {
	items []dto.DatasetItem
}

// NewDatasetService returns a service over the built-in dataset.
func NewDatasetService() DatasetService {
	items := make([]dto.DatasetItem, 0, len(defaultDataset))
	for _, entry := range defaultDataset {
		items = append(items, dto.DatasetItem{Text: entry.text, Gold: entry.gold})
	}
	return &datasetService{items: items}
}

func (s *datasetService) Items() []dto.DatasetItem {
	out := make([]dto.DatasetItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *datasetService) Default() dto.DatasetResponse {
	pairs := make([][2]string, 0, len(s.items))
	for _, item := range s.items {
		pairs = append(pairs, [2]string{item.Text, string(item.Gold)})
	}
	return dto.DatasetResponse{Count: len(pairs), Items: pairs}
}

// Fictional DTU course evaluations, half English and half Danish.
var defaultDataset = []struct {
	text string
	gold models.Label
}{
	{"Great course, learned a lot.", models.LabelPositive},
	{"Really solid DTU course with clear structure and useful exercises.", models.LabelPositive},
	{"Nicki was energetic and made MLOps feel practical and fun.", models.LabelPositive},
	{"The lectures were okay, but the pace felt uneven.", models.LabelNeutral},
	{"This course was hard, but worth it.", models.LabelPositive},
	{"Tue’s reinforcement learning course is brutal, yet the learning outcome is amazing.", models.LabelPositive},
	{"Bjørn explained the core ML ideas clearly and the project was motivating.", models.LabelPositive},
	{"I liked the course book and how it matched the weekly plan.", models.LabelPositive},
	{"The feedback on assignments came a bit late.", models.LabelNeutral},
	{"Finn’s NLP lectures were confusing and the slides had too many gaps.", models.LabelNegative},
	{"Overall fine, nothing special.", models.LabelNeutral},
	{"Excellent vocabulary and examples; I left each week with new tools.", models.LabelPositive},
	{"good course but the typos in the material was annoying lol", models.LabelNeutral},
	{"Nicki’s demos were sharp, and the TA feedback was super actionable.", models.LabelPositive},
	{"The course is well organized, but I wish there were more office hours.", models.LabelNeutral},
	{"Finn taught NLP, but honestly it felt messy and underprepared.", models.LabelNegative},
	{"Ivana’s cognitive science lectures were inspiring and beautifully presented.", models.LabelPositive},
	{"The teacher was nice and helpful.", models.LabelPositive},
	{"Too many mandatory readings, but the exams were fair.", models.LabelNeutral},
	{"Loved the project work and the way we got iterative feedback.", models.LabelPositive},
	{"Mega godt kursus!", models.LabelPositive},
	{"Rigtig god struktur og gode øvelser på DTU, jeg følte mig tryg gennem hele forløbet.", models.LabelPositive},
	{"Nicki gjorde MLOps levende med hands-on demoer, og feedbacken var hurtig og konkret.", models.LabelPositive},
	{"Kurset var okay, men tempoet svingede lidt fra uge til uge.", models.LabelNeutral},
	{"Svært kursus, men jeg lærte virkelig meget.", models.LabelPositive},
	{"Tue’s reinforcement learning var vildt svært, men undervisningen var stærk og gav mening til sidst.", models.LabelPositive},
	{"Bjørn var god til at forklare maskinlæring, og projektet bandt det hele sammen.", models.LabelPositive},
	{"Bogen passede fint til kurset, og kapitlerne blev brugt på en fornuftig måde.", models.LabelPositive},
	{"Jeg savnede lidt mere feedback på de tidlige afleveringer.", models.LabelNeutral},
	{"Finns NLP-kursus var rodet, og jeg forstod ofte ikke pointen med øvelserne.", models.LabelNegative},
	{"Helt fint, ikke noget wow.", models.LabelNeutral},
	{"Sproget i materialet var præcist, og eksemplerne var elegante og velvalgte.", models.LabelPositive},
	{"det var ok kursus men opgaverne var lidt mærkelige og der var mange fejl", models.LabelNeutral},
	{"Nicki var mega engageret, og man fik god, hurtig feedback på pipeline-opgaverne.", models.LabelPositive},
	{"Kurset fungerede, men der kunne godt være lidt bedre koordinering mellem forelæsning og øvelsestime.", models.LabelNeutral},
	{"Finn underviser i NLP, men det var frustrerende: uklare krav og for få forklaringer.", models.LabelNegative},
	{"Ivana var fantastisk—tydelig formidling, stærke diskussioner, og jeg gik derfra med nye perspektiver.", models.LabelPositive},
	{"Underviseren var hjælpsom, og jeg følte mig set i timerne.", models.LabelPositive},
	{"For meget læsning nogle uger, men eksamen virkede rimelig.", models.LabelNeutral},
	{"Jeg elskede projektet, og feedback-loopet gjorde, at vi faktisk blev bedre undervejs.", models.LabelPositive},
}
