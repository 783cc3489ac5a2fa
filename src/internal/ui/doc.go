// Package ui implements the interactive terminal client with bubbletea.
//
// Views:
//  1. [HomeView] : catalog shelves (trending, popular, top rated, ...)
//  2. [SearchView] : debounced multi search as you type
//  3. [DetailsView] : one title, with watchlist toggle
//  4. [WatchlistView] : the saved titles, hydrated from the catalog
//  5. [CuratedView] : picks from the user's most visited genres
//  6. [SignInView] : email and password form for sign in and sign up
//
// Everything that happens off the bubbletea loop (notices from the sync
// layer, session changes, watchlist changes, search results) is posted to
// an [Inbox] and read back one message at a time.
package ui
