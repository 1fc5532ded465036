package mcpserver

// AliasPatternGuide describes how citation aliases are written so LLM
// consumers can create aliases that match the citations in their texts.
const AliasPatternGuide = `# Lectern Alias Pattern Guide

A citation alias binds a short prefix (such as ` + "`" + `CCC` + "`" + `) to one imported
document. When text is scanned, every alias pattern is matched and each hit is
resolved to a paragraph of that document.

## Fields

| Field | Meaning |
|-------|---------|
| ` + "`" + `prefix` + "`" + ` | Display prefix, unique per document (1-32 characters). |
| ` + "`" + `pattern` + "`" + ` | RE2 regular expression. Must contain the prefix text and a capture for the number. |
| ` + "`" + `number_extractor` + "`" + ` | ` + "`" + `paragraph` + "`" + ` (default), ` + "`" + `section` + "`" + `, ` + "`" + `chapter:verse` + "`" + `, or ` + "`" + `custom` + "`" + `. |
| ` + "`" + `custom_group_index` + "`" + ` | Capture group used by the ` + "`" + `custom` + "`" + ` extractor (1-based). |
| ` + "`" + `display_format` + "`" + ` | Template with ` + "`" + `{prefix}` + "`" + ` and ` + "`" + `{number}` + "`" + `. Default ` + "`" + `{prefix} {number}` + "`" + `. |
| ` + "`" + `priority` + "`" + ` | Higher priorities claim overlapping text first. |

## Rules

1. **Patterns use RE2 syntax.** Backreferences and lookaround are not supported.
   Patterns longer than 512 characters are rejected.
2. **The first capture group is the paragraph number** for the ` + "`" + `paragraph` + "`" + `
   extractor, unless a named group ` + "`" + `(?P<num>...)` + "`" + ` is present.
3. **Ranges** use a named group ` + "`" + `end` + "`" + `: ` + "`" + `CCC (\d+)-(?P<end>\d+)` + "`" + ` matches
   ` + "`" + `CCC 17-19` + "`" + ` and cites paragraph 17, displayed as ` + "`" + `CCC 17-19` + "`" + `.
4. **Scripture style** references use ` + "`" + `chapter:verse` + "`" + ` with named groups
   ` + "`" + `chapter` + "`" + ` and ` + "`" + `verse` + "`" + `, or the first two captures.
5. **Overlaps**: when two aliases match the same text, the higher priority wins;
   on equal priority the earlier match wins. Adjacent matches never conflict.
6. A pattern that fails to compile is skipped with a warning; it never stops
   other aliases from matching.

## Examples

` + "```" + `
CCC (\d+)                         paragraph    CCC 1234
CCC (\d+)-(?P<end>\d+)            paragraph    CCC 17-19
Summa (I|II|III) q\. ?(\d+)       section      Summa I q. 2
John (?P<chapter>\d+):(?P<verse>\d+)   chapter:verse   John 3:16
` + "```" + `

Citation identifiers returned by the resolver have the form
` + "`" + `doc:<documentId>` + "`" + ` or ` + "`" + `doc:<documentId>:<nodeId>` + "`" + `.
`
