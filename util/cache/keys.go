package cache

// Cache key derivation lives in one place so entity keys, the collection
// patterns that invalidate them, and the revocation set never drift apart.
//
// Layout:
//
//	book:<id>        single entity
//	books:<json>     collection result, json = normalized query params
//	blacklist:<tok>  token revocation entry

func BookKey(id string) string { return "book:" + id }

const BooksPattern = "books:*"

// ListKey derives the collection key for a fully-specified filter struct.
// jsoniter marshals struct fields in declaration order, so the same
// parameters always produce the same key.
func ListKey(collection string, params any) string {
	raw, err := json.Marshal(params)
	if err != nil {
		// Filter structs are plain data; this cannot fail for them.
		// An unkeyable value must never alias another query's entry.
		return collection + ":unkeyable"
	}
	return collection + ":" + string(raw)
}

func BlacklistKey(token string) string { return "blacklist:" + token }
