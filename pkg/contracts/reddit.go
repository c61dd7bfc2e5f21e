// Package contracts holds recorded Reddit API responses, trimmed to the
// fields the client reads, and a fake API that serves them.
//
// The bodies follow the public JSON endpoints:
//   - GET /user/{name}.json        Listing of t1 (comment) and t3 (post) things
//   - GET /user/{name}/about.json  t2 (account) thing
package contracts

import (
	"net/http"
	"strings"
)

// ContractUsername is the account the fixtures describe.
const ContractUsername = "gopher_dev"

// RedditListingContract is one page of /user/{name}.json with a mix of
// posts, comments and a deleted comment. The cursor is exhausted.
const RedditListingContract = `{
  "kind": "Listing",
  "data": {
    "after": null,
    "dist": 5,
    "children": [
      {
        "kind": "t3",
        "data": {
          "id": "1abc01",
          "name": "t3_1abc01",
          "subreddit": "golang",
          "title": "How do you structure a Go project with several binaries?",
          "selftext": "I want to learn the idiomatic layout. Looking for advice on cmd and internal.",
          "permalink": "/r/golang/comments/1abc01/how_do_you_structure_a_go_project/",
          "created_utc": 1767225600.0,
          "score": 42,
          "num_comments": 17,
          "over_18": false
        }
      },
      {
        "kind": "t1",
        "data": {
          "id": "kq7x1a",
          "name": "t1_kq7x1a",
          "subreddit": "golang",
          "body": "Honestly the api docs are great, but the error messages are frustrating when the code does not compile.",
          "link_id": "t3_1abc01",
          "permalink": "/r/golang/comments/1abc01/how_do_you_structure_a_go_project/kq7x1a/",
          "created_utc": 1767229200.0,
          "score": 9
        }
      },
      {
        "kind": "t1",
        "data": {
          "id": "kq7x1b",
          "name": "t1_kq7x1b",
          "subreddit": "hiking",
          "body": "What trail would you recommend near the lake? We went camping there last summer.",
          "link_id": "t3_1abd77",
          "permalink": "/r/hiking/comments/1abd77/weekend_trails/kq7x1b/",
          "created_utc": 1767315600.0,
          "score": 3
        }
      },
      {
        "kind": "t1",
        "data": {
          "id": "kq7x1c",
          "name": "t1_kq7x1c",
          "subreddit": "golang",
          "body": "[deleted]",
          "link_id": "t3_1abc01",
          "permalink": "/r/golang/comments/1abc01/how_do_you_structure_a_go_project/kq7x1c/",
          "created_utc": 1767402000.0,
          "score": 1
        }
      },
      {
        "kind": "t3",
        "data": {
          "id": "1abe02",
          "name": "t3_1abe02",
          "subreddit": "programming",
          "title": "Shipped my first open source library",
          "selftext": "",
          "permalink": "/r/programming/comments/1abe02/shipped_my_first_open_source_library/",
          "created_utc": 1767488400.0,
          "score": 128,
          "num_comments": 30,
          "over_18": false
        }
      }
    ]
  }
}`

// RedditAboutContract is /user/{name}/about.json for ContractUsername.
const RedditAboutContract = `{
  "kind": "t2",
  "data": {
    "name": "gopher_dev",
    "id": "8xk2p",
    "created_utc": 1609459200.0,
    "total_karma": 5120,
    "link_karma": 1800,
    "comment_karma": 3320,
    "verified": true,
    "has_verified_email": true,
    "is_suspended": false,
    "is_gold": false,
    "icon_img": "https://styles.redditmedia.com/t5_x/styles/profileIcon.png"
  }
}`

// RedditNotFoundContract is the body Reddit returns with a 404.
const RedditNotFoundContract = `{"message": "Not Found", "error": 404}`

// Handler serves the contract bodies for ContractUsername and 404s for
// every other user, mimicking www.reddit.com.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=UTF-8")

		switch r.URL.Path {
		case "/user/" + ContractUsername + ".json":
			_, _ = w.Write([]byte(RedditListingContract))
		case "/user/" + ContractUsername + "/about.json":
			_, _ = w.Write([]byte(RedditAboutContract))
		default:
			if !strings.HasPrefix(r.URL.Path, "/user/") {
				http.NotFound(w, r)
				return
			}
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(RedditNotFoundContract))
		}
	})
}
