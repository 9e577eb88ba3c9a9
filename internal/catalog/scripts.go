package catalog

// Inline engine scripts. Each one follows the engine output convention:
// diagnostics on stderr, exactly one JSON line on stdout. Query parameters are
// never interpolated into the script text; they arrive through sys.argv so the
// interpreter sees them as discrete arguments.
//
// The engine's DatabaseHandler.get_all_songs returns rows as
// (id, title, artist, genre, url, thumbnail) tuples, so fields are addressed
// by position here.

// statsScript argv: [core_dir, db_path]
const statsScript = `
import json, sys
sys.path.insert(0, sys.argv[1])
from database import DatabaseHandler
db = DatabaseHandler(sys.argv[2])
songs = db.get_all_songs()
genres = {}
for song in songs:
    genre = song[3] or "Unknown"
    genres[genre] = genres.get(genre, 0) + 1
print(json.dumps({"total_songs": len(songs), "genres": genres}))
`

// listScript argv: [core_dir, db_path, genre, search]
// Genre and search filtering happen inside the engine query; the descending id
// sort happens here. Paging happens on the Go side so the caller also learns
// the pre-slice total.
const listScript = `
import json, sys
sys.path.insert(0, sys.argv[1])
from database import DatabaseHandler
db = DatabaseHandler(sys.argv[2])
songs = db.get_all_songs(genre=sys.argv[3], search=sys.argv[4])
songs.sort(key=lambda s: s[0], reverse=True)
rows = [{"id": s[0], "title": s[1], "artist": s[2], "genre": s[3], "url": s[4], "thumbnail": s[5]}
        for s in songs]
print(json.dumps({"songs": rows}))
`

// addScript argv: [core_dir, adder_script, db_path, url]
// The adder is a command-line program (url --db <path>); this shim rebuilds
// its argv and executes it in place so the url is never shell-interpreted.
const addScript = `
import runpy, sys
sys.path.insert(0, sys.argv[1])
script = sys.argv[2]
sys.argv = [script, sys.argv[4], "--db", sys.argv[3]]
runpy.run_path(script, run_name="__main__")
`
