package classify

import "strings"

// Keyword tables backing the classification rules. All matching is
// case-insensitive substring search over a program's searchable text; the
// tables are fixed data, not configuration.

// domainTypeTag is the project-category tag of the target domain.
const domainTypeTag = "playground"

// domainKeywords mark a program as relevant to playground construction
// and outdoor play infrastructure.
var domainKeywords = []string{
	"spielplatz",
	"spielplätze",
	"spielgerät",
	"spielanlage",
	"spielraum",
	"playground",
	"bewegungsförderung",
	"bolzplatz",
	"freiraumgestaltung",
	"kinderfreundlich",
}

// domainMeasures are intervention tags typical for playground projects.
// A program whose measures intersect this set counts as domain-relevant
// even without a keyword hit.
var domainMeasures = []string{
	"spielgeräte",
	"fallschutz",
	"klettergerüst",
	"sandkasten",
	"wasserspielanlage",
	"inklusionsspielgeräte",
	"neubau spielplatz",
	"sanierung spielplatz",
}

// exclusionKeywords identify funding domains outside the system's scope.
// A hit excludes the program unless it is also domain-relevant.
var exclusionKeywords = []string{
	"hochschule",
	"universität",
	"forschung",
	"digitalisierung",
	"breitband",
	"existenzgründung",
	"landwirtschaft",
	"medizin",
	"pflegeeinrichtung",
	"denkmalschutz",
	"elektromobilität",
	"wasserstoff",
	"industrie 4.0",
}

// stateNames are the sixteen federal states plus generic state-program
// indicators; a textual hit marks a program as region-specific even when its
// state list says "all".
var stateNames = []string{
	"baden-württemberg",
	"bayern",
	"berlin",
	"brandenburg",
	"bremen",
	"hamburg",
	"hessen",
	"mecklenburg-vorpommern",
	"niedersachsen",
	"nordrhein-westfalen",
	"rheinland-pfalz",
	"saarland",
	"sachsen-anhalt",
	"sachsen",
	"schleswig-holstein",
	"thüringen",
	"landesprogramm",
	"landesförderung",
}

// supraRegionalKeywords indicate EU or federal programs implemented
// nationwide through state or local bodies.
var supraRegionalKeywords = []string{
	"efre",
	"esf",
	"eler",
	"eu-förderung",
	"europäisch",
	"interreg",
	"bundesprogramm",
	"bundesförderung",
	"städtebauförderung",
}

// euKeywords and federalKeywords drive the origin facet.
var euKeywords = []string{"efre", "esf", "eler", "eu-förderung", "europäisch", "interreg"}

var federalKeywords = []string{"bundesprogramm", "bundesförderung", "bund", "kfw", "bafa"}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
