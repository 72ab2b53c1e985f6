package help

const ColdstartYAML = `# higdocs Quick Start

corpus_format:
  front_matter: "--- delimited YAML: title, platform, category, url, id, lastUpdated, extractionMethod, qualityScore, confidence, contentLength, hasCodeExamples, hasImages, keywords"
  body: "Markdown guideline text"
  attribution: "Trailing notice after the last --- (kept separately, not indexed)"

commands:
  build_index: |
    higdocs index --content-dir=./hig
    higdocs index --content-dir=./hig --manifest=manifest.yaml

  check_corpus: |
    higdocs validate --content-dir=./hig
    higdocs validate --errors-only

  explore: |
    higdocs stats
    higdocs suggest
    higdocs query --filter="category=components AND has_code"
    higdocs search "tab bar"
    higdocs get --view=outline buttons
    higdocs get --filter="section:best practices,type:li" buttons
    higdocs extract --top=25
    higdocs keywords --platform=macos --top=10
    higdocs --format=markdown get components/buttons.md

  history: |
    higdocs runs
    higdocs runs 3

  serve: |
    higdocs serve --addr=:8080 --watch
    higdocs mcp   # MCP over stdio for LLM clients

  normalize: |
    higdocs export --out=./normalized

filter_fields:
  text: "category, platform, title, slug, path, url, extraction_method (method), language, quality_band"
  number: "quality_score (quality), confidence, content_length, word_count, section_count, code_block_count, image_count"
  boolean: "has_code_examples (has_code), has_images, valid"
  keyword: "keyword:<word> matches front matter and computed keywords"
  operators: "= != > >= < <= ~ (substring, text only)"
  combine: "AND or OR, not both in one filter"

get_views:
  full: "Front matter, body, sections and metadata (default)"
  metadata: "Front matter, computed metadata and validation issues"
  outline: "Heading tree with block counts"
  code: "Code examples with their headings"

strategy_filter:
  syntax: "type:p|li|code|table|blockquote|image,section:<heading substring>"
  example: 'higdocs get --filter="type:code" buttons'

http_api:
  - "GET  /health"
  - "GET  /api/v1/stats"
  - "GET  /api/v1/documents?platform=&category=&limit=&offset="
  - "GET  /api/v1/documents/{slug}[/markdown|/html]"
  - "GET  /api/v1/search?q=&limit="
  - "GET  /api/v1/query?filter="
  - "GET  /api/v1/keywords?top="
  - "GET  /api/v1/categories"
  - "GET  /api/v1/platforms"
  - "POST /api/v1/corpus   # {verb, query, filter, id, view, strategy, doc_ids, limit, constraints}"
  - "POST /api/v1/reindex  # X-Admin-Token header when server.admin_token is set"
  - "ANY  /mcp             # MCP streamable HTTP"

mcp_tools:
  hig_search: "{query, limit}"
  hig_get_document: "{id, view}"
  hig_query: "{filter, limit}"
  hig_list: "{platform, category, limit}"
  hig_categories: "{}"
  hig_keywords: "{top}"

config:
  file: "higdocs.yaml in . or ~/.config/higdocs"
  env: "HIG_CONTENT_DIR, HIG_DB_PATH, HIG_WORKERS, HIG_LOG_LEVEL, HIG_SERVER_ADDR, HIG_SERVER_ADMIN_TOKEN ..."
  dotenv: ".env and .env.local are loaded when present"

invariants:
  - "Same file contents = same checksum = no rewrite on re-index"
  - "Documents whose files disappear are removed on the next index run"
  - "Duplicate ids: the first path in sorted order wins"
  - "Documents with validation errors are indexed but flagged valid=false"

error_behavior:
  - "Per-file failures are recorded in the run and never abort indexing"
  - "Exit codes: 0=success, 1=validation errors or partial failure, 2=fatal"
`
