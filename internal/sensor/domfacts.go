package sensor

// domFactSchema declares the DOM/network/event fact predicates a
// RodSource pushes into the Mangle engine per interaction window.
const domFactSchema = `
Decl dom_node(id: string, tag: string, parent: string).
Decl dom_attr(id: string, key: string, value: string).
Decl dom_text_len(id: string, length: string).
Decl dom_visible(id: string, visible: string).
Decl dom_added(id: string).

Decl net_request(request_id: string, method: string, url: string).
Decl net_response(request_id: string, status: string).

Decl nav_event(url: string).
Decl console_event(level: string, message: string).
Decl toast_candidate(id: string).
Decl modal_candidate(id: string).
Decl auth_challenge_event().
`

// domRules derive the signal vocabulary's DOM-level classifications
// from the raw facts a RodSource pushes per interaction window. This
// mirrors the is_honeypot derivation shape — element facts in,
// boolean/classification predicates out — retargeted from honeypot
// detection onto substantive-signal classification.
const domRules = `
Decl substantive_dom_change(id: string).
substantive_dom_change(Id) :-
    dom_added(Id),
    dom_visible(Id, "true").

Decl toast_appeared(id: string).
toast_appeared(Id) :-
    toast_candidate(Id),
    dom_visible(Id, "true").

Decl modal_appeared(id: string).
modal_appeared(Id) :-
    modal_candidate(Id),
    dom_visible(Id, "true").

Decl console_error_present(msg: string).
console_error_present(Msg) :-
    console_event("error", Msg).

Decl network_error_response(request_id: string).
network_error_response(Id) :-
    net_response(Id, Status),
    fn:string:contains(Status, "5").
`
