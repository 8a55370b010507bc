package memory

import "strings"

// The extraction vocabulary mirrors the Lacopro catalog: brow and lash
// styling, nail care, training courses and tanning. Matching is plain
// substring search over the lowercased message, in the spirit of the
// store's FAQ-level signal detection.

type keywordSet struct {
	name     string
	keywords []string
}

var categoryKeywords = []keywordSet{
	{"cejas", []string{"ceja", "cejas", "laminacion", "laminación", "refectocil", "henna"}},
	{"pestañas", []string{"pestaña", "pestañas", "pestanas", "postizas", "ardell", "extensiones"}},
	{"uñas", []string{"uña", "uñas", "manicure", "apres", "aprés", "esmalte", "soft gel", "acrilico", "acrílico"}},
	{"formación", []string{"curso", "cursos", "capacitacion", "capacitación", "taller", "certificacion", "certificación"}},
	{"bronceado", []string{"bronceado", "autobronceante", "quick tan"}},
}

var interestKeywords = []keywordSet{
	{"compra", []string{"precio", "cuanto", "cuánto", "comprar", "cuesta", "vale", "oferta", "descuento", "stock", "envio", "envío"}},
	{"aprendizaje", []string{"como se", "cómo se", "aprender", "tutorial", "tecnica", "técnica", "paso a paso", "principiante"}},
	{"profesional", []string{"salon", "salón", "clientas", "profesional", "manicurista", "negocio", "emprendimiento"}},
}

// interestPhrases renders interest codes into summary prose.
var interestPhrases = map[string]string{
	"compra":      "con intención de compra",
	"aprendizaje": "quiere aprender técnicas",
	"profesional": "trabaja en el rubro de la belleza",
}

var productTypes = []string{
	"tinte",
	"lima",
	"kit de laminación",
	"kit de laminacion",
	"kit",
	"gel",
	"adhesivo",
	"lámpara",
	"lampara",
	"esmalte",
	"primer",
	"removedor",
	"pinza",
	"pestañas postizas",
	"autobronceante",
}

// extractInto runs the category, interest and product-type passes over
// the message, appending anything new to the record. Detections are
// append-only unions.
func extractInto(r *Record, message string) {
	lower := strings.ToLower(message)

	for _, cat := range categoryKeywords {
		if contains(r.Topics, cat.name) {
			continue
		}
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				r.Topics = append(r.Topics, cat.name)
				break
			}
		}
	}

	for _, in := range interestKeywords {
		if contains(r.Interests, in.name) {
			continue
		}
		for _, kw := range in.keywords {
			if strings.Contains(lower, kw) {
				r.Interests = append(r.Interests, in.name)
				break
			}
		}
	}

	for _, pt := range productTypes {
		if contains(r.MentionedProducts, pt) {
			continue
		}
		if strings.Contains(lower, pt) {
			r.MentionedProducts = append(r.MentionedProducts, pt)
		}
	}
}

// NormalizeQuery canonicalizes a message for frequency counting and
// cache keying.
func NormalizeQuery(message string) string {
	return strings.ToLower(strings.TrimSpace(message))
}
