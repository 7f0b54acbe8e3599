package migration

import (
	"fmt"

	"github.com/SusheelSathyaraj/ClicomImport/database"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// source tables and target collections share names
const (
	Client   = "CLIENT"
	Produit  = "PRODUIT"
	Commande = "COMMANDE"
	Detail   = "DETAIL"
)

// field allow-lists, in document order
var (
	clientFields   = []string{"NCLI", "NOM", "ADRESSE", "LOCALITE", "CAT", "COMPTE"}
	produitFields  = []string{"NPRO", "LIBELLE", "PRIX", "QSTOCK"}
	commandeFields = []string{"NCOM", "NCLI", "DATECOM"}
	detailFields   = []string{"NPRO", "QCOM"}
)

// key columns used when an explicit order is requested
var sortKeys = map[string]string{
	Client:   "NCLI",
	Produit:  "NPRO",
	Commande: "NCOM",
	Detail:   "NCOM, NPRO",
}

// copies the named fields in order; absent columns become null
func project(row database.Row, fields []string) bson.D {
	doc := make(bson.D, 0, len(fields)+1)
	for _, field := range fields {
		doc = append(doc, bson.E{Key: field, Value: row[field]})
	}
	return doc
}

func ProjectClient(row database.Row) bson.D {
	return project(row, clientFields)
}

// ProjectProduit keeps PRIX as an exact Decimal128.
func ProjectProduit(row database.Row) (bson.D, error) {
	doc := project(row, produitFields)
	prix, err := toDecimal128(row["PRIX"])
	if err != nil {
		return nil, fmt.Errorf("produit %v: PRIX: %w", row["NPRO"], err)
	}
	doc[2].Value = prix
	return doc, nil
}

// ProjectCommande nests the already selected details as DETAILS. A commande
// without details gets an empty array.
func ProjectCommande(row database.Row, details []database.Row) bson.D {
	doc := project(row, commandeFields)

	nested := make(bson.A, 0, len(details))
	for _, detail := range details {
		nested = append(nested, project(detail, detailFields))
	}
	return append(doc, bson.E{Key: "DETAILS", Value: nested})
}

// DetailIndex holds detail rows partitioned by NCOM, each group in source order.
type DetailIndex struct {
	groups map[interface{}][]database.Row
}

func GroupDetailsByOrder(details []database.Row) *DetailIndex {
	idx := &DetailIndex{groups: make(map[interface{}][]database.Row)}
	for _, detail := range details {
		key := database.NormalizeKey(detail["NCOM"])
		idx.groups[key] = append(idx.groups[key], detail)
	}
	return idx
}

// details whose NCOM equals ncom
func (idx *DetailIndex) For(ncom interface{}) []database.Row {
	return idx.groups[database.NormalizeKey(ncom)]
}

// number of distinct NCOM values seen
func (idx *DetailIndex) Len() int {
	return len(idx.groups)
}

// builds every commande document from the full detail set
func BuildCommandes(commandes, details []database.Row) []bson.D {
	idx := GroupDetailsByOrder(details)
	docs := make([]bson.D, 0, len(commandes))
	for _, commande := range commandes {
		docs = append(docs, ProjectCommande(commande, idx.For(commande["NCOM"])))
	}
	return docs
}

// converts what the drivers return for DECIMAL columns (text, or a float for
// some drivers) into a Decimal128 without going through float arithmetic
func toDecimal128(v interface{}) (interface{}, error) {
	var d decimal.Decimal
	switch n := v.(type) {
	case nil:
		return nil, nil
	case string:
		parsed, err := decimal.NewFromString(n)
		if err != nil {
			return nil, err
		}
		d = parsed
	case []byte:
		parsed, err := decimal.NewFromString(string(n))
		if err != nil {
			return nil, err
		}
		d = parsed
	case float64:
		d = decimal.NewFromFloat(n)
	case float32:
		d = decimal.NewFromFloat32(n)
	case int64:
		d = decimal.NewFromInt(n)
	case int:
		d = decimal.NewFromInt(int64(n))
	case int32:
		d = decimal.NewFromInt32(n)
	default:
		return nil, fmt.Errorf("unsupported numeric type %T", v)
	}
	// keep the source scale, 185.00 stays 185.00
	places := -d.Exponent()
	if places < 0 {
		places = 0
	}
	return primitive.ParseDecimal128(d.StringFixed(places))
}
