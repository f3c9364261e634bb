// Package fable is a dialogue scripting and text-layout engine for 2D
// talking point-and-click games, built for [Ebitengine].
//
// Fable turns markup-annotated script strings into paginated, styled,
// progressively-revealed glyph sequences, and drives game behavior through a
// small event scripting runtime over a tag/field entity model.
//
// # Quick start
//
// Load a bitmap font, create a dialogue playback, and queue a script:
//
//	font, _ := fable.LoadFont(fntData)
//	talk := fable.NewPlayback(font, 192)
//	talk.Queue("hello {+rbw}world{-rbw}", nil)
//
// Each frame, advance and draw:
//
//	talk.Update(1.0 / 60)
//	renderer.Draw(screen, talk)
//
// # Markup
//
// Dialogue scripts use brace-delimited style directives and a lightweight
// "fakedown" shorthand that expands to them:
//
//	{+shk}shaking{-shk}   or  ##shaking##
//	{+wvy}wavy{-wvy}      or  ~~wavy~~
//	{+rbw}rainbow{-rbw}   or  ==rainbow==
//	{+r}instant{-r}       or  __instant__
//	{clr=#ff0000}red text
//	{br} line break       {pg} page break
//
// Unknown directives are carried through harmlessly; malformed markup never
// errors.
//
// # Game runtime
//
// A [Session] owns a [Project] (rooms, events, typed fields), an avatar, and
// a [Playback]. Avatar movement touches events, which run either built-in
// behaviors (say, exit, ending, ...) or user-authored scripts through a
// sandboxed [Invoker].
//
// [Ebitengine]: https://ebitengine.org
package fable
