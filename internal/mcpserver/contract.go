package mcpserver

// FormatContract describes the CoNLL-U input and graph output that LLM
// consumers should follow when converting or creating corpus files.
const FormatContract = `# semconv Format Contract

## CoNLL-U input

Sentences are blocks of tab-separated word lines, separated by one blank
line. Every word line has exactly ten columns:

    ID  FORM  LEMMA  UPOS  XPOS  FEATS  HEAD  DEPREL  DEPS  MISC

- Use ` + "`_`" + ` for an empty column.
- ` + "`ID`" + ` is 1-based; ` + "`HEAD`" + ` is the ID of the governing word, 0 for the root.
- Exactly one word per sentence should carry ` + "`HEAD=0`" + ` and ` + "`DEPREL=root`" + `.
- Multiword-token ranges (` + "`1-2`" + `) and empty nodes (` + "`3.1`" + `) are read but ignored.
- ` + "`DEPS`" + ` (e.g. ` + "`2:nsubj|4:nsubj`" + `) is only read when the server runs in enhanced mode.
- ` + "`SpaceAfter=No`" + ` in MISC is honoured when rebuilding sentence text.

Comment lines start with ` + "`#`" + `:

- ` + "`# sent_id = doc.1`" + ` names the sentence; sentences without one are numbered.
- ` + "`# text = ...`" + ` is the raw sentence text.
- ` + "`# newdoc`" + ` and ` + "`# newpar`" + ` start documents and paragraphs.

Files in the corpus end with ` + "`.conllu`" + `, are UTF-8 and use forward slashes in paths.

## Semantic graph output

Each converted sentence is a JSON document:

` + "```" + `json
{
  "id": "doc.1",
  "terminals": [{"id": "0.1", "text": "John", "position": 1}],
  "units": ["1.1", "1.2"],
  "edges": [{"parent": "1.1", "child": "1.2", "tag": "H"}],
  "extra": {"doc": [[["nsubj", 1, "PROPN", "John", "John", "John"]]]}
}
` + "```" + `

- ` + "`units[0]`" + ` is always the root unit.
- Edge tags are relation labels. ` + "`root`" + ` becomes ` + "`H`" + `, ` + "`punct`" + ` becomes ` + "`U`" + ` and
  ` + "`flat`" + ` becomes ` + "`Terminal`" + `. Subtypes such as ` + "`nsubj:pass`" + ` are reduced to ` + "`nsubj`" + `.
- ` + "`remote: true`" + ` marks a secondary (enhanced) edge.
- ` + "`extra.doc`" + ` carries per-token attributes by paragraph when annotation is on:
  relation, head offset (0 for the root word), tag, POS, lemma and form.
- Non-remote edges must form a tree under the root unit. A graph with a cycle among them is
  rejected as malformed.

Pass the documents unchanged to ` + "`convert_to_dependency`" + ` to get CoNLL-U back.

## Failures

A sentence whose heads do not form a tree over its words (a HEAD pointing
past the last word, a word that is its own head) fails on its own. The
rest of the batch is still converted and the failure is listed with the
sentence id.
`
