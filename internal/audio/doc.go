// Package audio plays short song previews while a song is highlighted.
//
// [Preview] owns one player for the life of the process, created on first use. Highlighting a
// song calls [Preview.HoverStart], which fetches the preview in the background and plays it from
// the beginning; moving away calls [Preview.HoverEnd], which pauses and rewinds. Loads that finish
// after the highlight already moved on are dropped using a generation counter.
//
// Previews are disabled on compact terminals, where the cursor is usually driven by scrolling
// rather than deliberate selection. The width is re-evaluated on every [Preview.Resize].
//
// Playback uses beep's mp3 decoder and speaker. Builds without native audio support get a
// player that accepts every call and produces no sound.
package audio
