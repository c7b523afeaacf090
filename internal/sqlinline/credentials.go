// Package sqlinline holds the SQL statements used by the credential store.
package sqlinline

const QSelectServiceCredential = `
select secret
from service_credentials
where service = $1::text
limit 1;
`

const QUpsertServiceCredential = `
insert into service_credentials (id, service, secret, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, now(), now())
on conflict (service) do update set
    secret = excluded.secret,
    updated_at = now();
`
