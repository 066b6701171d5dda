package mcpserver

// ProjectFormatURI is the resource URI of ProjectFormat.
const ProjectFormatURI = "muvel://project-format"

// ProjectFormat describes how a Muvel project is laid out on disk, for
// clients that read or reference project files directly.
const ProjectFormat = `# Muvel Project Format

A novel is a self-contained folder. Everything the app knows about the
novel lives inside it, so the folder can be copied, synced or versioned
as a unit.

## Layout

` + "```" + `
<project>/
  <name>.muvl                 novel metadata (exactly one per folder)
  episodes/
    <episodeId>.mvle          one episode
  snapshots/
    <episodeId>/
      <snapshotId>.mvles      immutable copy of an episode's blocks
  wiki/
    <wikiPageId>.mvlw         one wiki page
  resources/
    images/
      <uuid>.<ext>            uploaded images
` + "```" + `

All documents are UTF-8 JSON with camelCase keys. Files are replaced
atomically, so a reader never sees a partial document.

## Novel (.muvl)

` + "`" + `id` + "`" + `, ` + "`" + `title` + "`" + `, optional ` + "`" + `description` + "`" + `, ` + "`" + `tags` + "`" + `, ` + "`" + `thumbnail` + "`" + `,
` + "`" + `share` + "`" + ` (0 private, 1 unlisted, 2 public, 3 local), ` + "`" + `createdAt` + "`" + `,
` + "`" + `updatedAt` + "`" + `, ` + "`" + `episodeCount` + "`" + `, ` + "`" + `localPath` + "`" + `.
A folder holding two .muvl files is ambiguous and is not opened.

## Episode (.mvle)

` + "`" + `id` + "`" + `, ` + "`" + `novelId` + "`" + `, ` + "`" + `title` + "`" + `, ` + "`" + `description` + "`" + `, ` + "`" + `episodeType` + "`" + `
(0 episode, 1 group, 2 prologue, 3 epilogue, 4 special, 5 memo),
` + "`" + `order` + "`" + ` (fractional; listings sort by it), ` + "`" + `contentLength` + "`" + ` (non-whitespace
characters of all block text), ` + "`" + `blocks` + "`" + `.

## Block

` + "`" + `id` + "`" + `, ` + "`" + `blockType` + "`" + `, ` + "`" + `order` + "`" + ` (integer), ` + "`" + `content` + "`" + ` (editor nodes),
` + "`" + `text` + "`" + ` (plain text derived from content), ` + "`" + `attr` + "`" + `. Text nodes are objects
with ` + "`" + `"type": "text"` + "`" + ` and a ` + "`" + `text` + "`" + ` field; other nodes may nest ` + "`" + `content` + "`" + `.

## Wiki page (.mvlw)

` + "`" + `id` + "`" + `, ` + "`" + `title` + "`" + `, optional ` + "`" + `summary` + "`" + `, ` + "`" + `category` + "`" + ` (character, location,
item, event, organization, concept, other), ` + "`" + `tags` + "`" + `, ` + "`" + `thumbnail` + "`" + `,
` + "`" + `attributes` + "`" + ` (string map), ` + "`" + `blocks` + "`" + `.

## Snapshot (.mvles)

` + "`" + `id` + "`" + `, ` + "`" + `episodeId` + "`" + `, ` + "`" + `reason` + "`" + ` (manual, autosave, merge), ` + "`" + `blocks` + "`" + `,
` + "`" + `createdAt` + "`" + `. Restoring a snapshot first takes a merge snapshot of the
current state.

## Images

Upload with the ` + "`" + `save_image` + "`" + ` tool. It returns the absolute path of the
stored file. Supported formats: png, jpg, jpeg, gif, webp.
`
