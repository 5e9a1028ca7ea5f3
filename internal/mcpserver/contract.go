package mcpserver

// OutlineFormatContract describes the markdown outline structure that the
// list parser, tag queries and search understand. LLM consumers should
// follow it when writing vault files.
const OutlineFormatContract = `# Ledger Outline Format

Vault files are plain Markdown. Only **list items** become addressable
nodes; headings, paragraphs and tables are kept on disk but ignored by
parse_file and query_by_tag. search_full_text sees every line.

## Structure

` + "```" + `markdown
- Project A
  - Task 1 #task
    - Detail with a #decision
  - Task 2
- Project B
  - Task 3 #task #ci
` + "```" + `

## Rules

1. **Nesting** is expressed with indentation under the parent item's text
   (two spaces for "-", three for "1."). Each nested list adds one level of depth.
2. **Node text** is the item's own inline text, trimmed. Soft line breaks become a
   single space, hard breaks (two trailing spaces) become a newline.
3. **Empty items** are dropped and do not consume an id.
4. **Tags** are ` + "`" + `#` + "`" + ` followed by letters, digits, ` + "`" + `_` + "`" + ` or ` + "`" + `-` + "`" + `
   (e.g. ` + "`" + `#task` + "`" + `, ` + "`" + `#multi-word_tag` + "`" + `). Tags are matched without the ` + "`" + `#` + "`" + `.
   Duplicates are kept.
5. **Node ids** count from 0 in document order within one file. They change
   whenever the file is edited; never store them.
6. **Scope** in query_by_tag is a node id from the same parse; matches are limited to
   that node and its descendants.
7. **File paths** end with ` + "`" + `.md` + "`" + `, use forward slashes and are relative
   to the vault root. ` + "`" + `..` + "`" + ` segments are rejected.
8. **Writes** should pass the checksum from read_file as if_match to avoid
   overwriting concurrent edits.

## Example query

query_by_tag with tags ` + "`" + `["task"]` + "`" + ` and scope ` + "`" + `0` + "`" + ` on the structure above returns
only "Task 1 #task", with parent_path "Project A".
`
